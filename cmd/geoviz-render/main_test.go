package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/require"
)

const input = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "land", "properties": {"kind": "land"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[10,0],[10,10],[0,10],[0,0]]]}},
    {"type": "Feature", "id": "light", "properties": {"kind": "light"},
     "geometry": {"type": "Point", "coordinates": [2, 3]}},
    {"type": "Feature", "id": "far", "properties": {},
     "geometry": {"type": "Point", "coordinates": [120, -40]}},
    {"type": "Feature", "id": "bad", "properties": {},
     "geometry": {"type": "LineString", "coordinates": [[1,1]]}}
  ]
}`

func TestRunJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	opts := Options{BBox: "0,0,5,5", CRS: "EPSG:4326", Workers: 2}
	require.NoError(t, run(context.Background(), opts, strings.NewReader(input), &stdout, &stderr))

	var doc frameJSON
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &doc))
	require.Equal(t, "EPSG:4326", doc.CRS)
	require.Equal(t, [4]float64{0, 0, 5, 5}, doc.BBox)
	require.Len(t, doc.Commands, 2)
	require.Equal(t, "land", doc.Commands[0].FeatureID)
	require.Equal(t, "#d4d4d4", doc.Commands[0].Fill)
	require.Equal(t, "polygon", doc.Commands[0].Kind)
	require.Equal(t, "point", doc.Commands[1].Kind)
	require.Len(t, doc.Rejected, 1)
	require.Equal(t, 3, doc.Rejected[0].Position)
	require.NotEmpty(t, doc.Fingerprint)

	require.Contains(t, stderr.String(), "frame rendered")
}

func TestRunWithConfigGeoJSON(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "style.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
crs: EPSG:3857
log: {level: error}
style:
  rules:
    - name: lights
      when: {eq: {attr: kind, value: light}}
      fill: gold
      z: 5
`), 0o644))
	inPath := filepath.Join(dir, "in.geojson")
	require.NoError(t, os.WriteFile(inPath, []byte(input), 0o644))
	outPath := filepath.Join(dir, "out.geojson")

	opts := Options{Input: inPath, Output: outPath, Config: cfgPath, Format: "geojson", Scope: "africa"}
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), opts, nil, &stdout, &stderr))
	require.Empty(t, stdout.String())
	require.Empty(t, stderr.String())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var out struct {
		Features []struct {
			ID         string         `json:"id"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.Features, 2)
	// The light is drawn last, on top of the land.
	require.Equal(t, "land", out.Features[0].ID)
	require.Equal(t, "light", out.Features[1].ID)
	require.Equal(t, "#ffd700", out.Features[1].Properties["fill"])
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		in   string
	}{
		{"bad geojson", Options{}, "{"},
		{"bad crs", Options{CRS: "EPSG:1"}, input},
		{"bad bbox", Options{BBox: "1,2,3"}, input},
		{"bad tile", Options{Tile: "3/9/1"}, input},
		{"missing config", Options{Config: "/nonexistent/geoviz.yaml"}, input},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.opts, strings.NewReader(tt.in), &stdout, &stderr)
			require.Error(t, err)
		})
	}
}

func TestParseTile(t *testing.T) {
	tile, err := parseTile("6/33/21")
	require.NoError(t, err)
	require.Equal(t, maptile.New(33, 21, 6), tile)

	_, err = parseTile("6/33")
	require.Error(t, err)
	_, err = parseTile("a/b/c")
	require.Error(t, err)
}

func TestParseBBox(t *testing.T) {
	b, err := parseBBox(" 5, 6, 1, 2 ")
	require.NoError(t, err)
	require.Equal(t, 1.0, b.MinX)
	require.Equal(t, 6.0, b.MaxY)

	_, err = parseBBox("1,2,x,4")
	require.Error(t, err)
}
