package symbology

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"honnef.co/go/curve"
)

const cities = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [10, 20]}, "properties": {"NAME": "Lyon", "POP": 513275}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [30, 40]}, "properties": {"NAME": "Nice", "POP": 342669}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [50, 60]}, "properties": {"NAME": "Vienne", "POP": 29000}}
  ]
}`

func loadCities(t *testing.T) *FeatureLayer {
	t.Helper()
	fl, err := LoadFeatureLayer("cities", strings.NewReader(cities))
	if err != nil {
		t.Fatalf("LoadFeatureLayer: %v", err)
	}
	return fl
}

func labelTexts(labels []Label) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.Text
	}
	return out
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func nearPoint(a, b curve.Point) bool { return near(a.X, b.X) && near(a.Y, b.Y) }

func TestLoadGeoJSON(t *testing.T) {
	fl := loadCities(t)
	if fl.Kind != PointGeometry || fl.Len() != 3 {
		t.Fatalf("unexpected layer: kind=%v len=%d", fl.Kind, fl.Len())
	}
	if diff := cmp.Diff([]string{"FID", "NAME", "POP"}, fl.Table.FieldNames()); diff != "" {
		t.Fatalf("field names mismatch (-want +got):\n%s", diff)
	}
	if c, _ := fl.Table.Column("POP"); c.Kind != KindNumber {
		t.Fatalf("POP kind = %v", c.Kind)
	}
	if got := fl.Geometries[1].Parts[0][0]; got != curve.Pt(30, 40) {
		t.Fatalf("geometry 1 = %v", got)
	}
	if fid := fl.Table.Row(2)[FIDField]; fid != 2 {
		t.Fatalf("FID = %v", fid)
	}
}

func TestLoadRowArray(t *testing.T) {
	src := `[{"name": "A", "x": 1, "y": 2, "rank": 3}, {"name": "B", "x": 4, "y": 5, "rank": "high"}]`
	fl, err := LoadFeatureLayer("rows", strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadFeatureLayer: %v", err)
	}
	if diff := cmp.Diff([]string{"FID", "name", "x", "y", "rank"}, fl.Table.FieldNames()); diff != "" {
		t.Fatalf("field names mismatch (-want +got):\n%s", diff)
	}
	if c, _ := fl.Table.Column("rank"); c.Kind != KindString {
		t.Fatalf("mixed column kind = %v", c.Kind)
	}
	if fl.Kind != PointGeometry || fl.Geometries[1].Parts[0][0] != curve.Pt(4, 5) {
		t.Fatalf("unexpected geometry: %+v", fl.Geometries)
	}
}

func TestLoadRejectsUnknownJSON(t *testing.T) {
	if _, err := LoadFeatureLayer("x", strings.NewReader(`{"type": "Topology"}`)); err == nil {
		t.Fatalf("expected error for unsupported document")
	}
	if _, err := LoadFeatureLayer("x", strings.NewReader(`[1, 2]`)); err == nil {
		t.Fatalf("expected error for non-object rows")
	}
}

func TestSchemeEditing(t *testing.T) {
	s := NewLabelScheme()
	first := s.Categories[0]
	if err := s.Remove(first); !errors.Is(err, ErrLastCategory) {
		t.Fatalf("Remove last = %v", err)
	}
	second := s.AddCategory()
	third := s.AddCategory()
	if second.Name != "Category 1" || third.Name != "Category 2" {
		t.Fatalf("names = %q %q", second.Name, third.Name)
	}
	if err := s.Rename(third, "category 1"); !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("Rename duplicate = %v", err)
	}
	if err := s.Rename(third, "Capitals"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if !s.Promote(first) || s.IndexOf(first) != 1 {
		t.Fatalf("Promote failed, index %d", s.IndexOf(first))
	}
	if s.Promote(third) {
		t.Fatalf("Promote should fail for the last category")
	}
	if !s.Demote(first) || s.Demote(first) {
		t.Fatalf("Demote should succeed once")
	}
	if err := s.Remove(second); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := s.AddCategory().Name; got != "Category 2" {
		t.Fatalf("AddCategory after remove = %q", got)
	}
	if s.Find("CAPITALS") != third {
		t.Fatalf("Find should ignore case")
	}
}

func TestCloneIsDeep(t *testing.T) {
	layer := NewLabelLayer(loadCities(t))
	clone := layer.Clone()
	clone.Symbology.Categories[0].Symbolizer.FontSize = 20
	clone.Symbology.Categories[0].Expression = "[NAME]"
	if layer.Symbology.Categories[0].Symbolizer.FontSize == 20 || layer.Symbology.Categories[0].Expression != "" {
		t.Fatalf("clone shares state with original")
	}
	if clone.FeatureLayer != layer.FeatureLayer {
		t.Fatalf("feature layer should be shared")
	}
	layer.CopyProperties(clone)
	if layer.Symbology.Categories[0].Expression != "[NAME]" {
		t.Fatalf("CopyProperties did not copy the scheme")
	}
	if layer.Symbology.Categories[0] == clone.Symbology.Categories[0] {
		t.Fatalf("CopyProperties should copy, not alias")
	}
}

func TestCreateLabels(t *testing.T) {
	layer := NewLabelLayer(loadCities(t))
	layer.Symbology.Categories[0].Expression = "[NAME]"
	big := layer.Symbology.AddCategory()
	big.Expression = "[NAME] ([POP])"
	big.FilterExpression = "[POP] > 100000"
	big.Symbolizer.FloatingFormat = "N0"
	script := layer.Symbology.AddCategory()
	script.Expression = "def Main():\n    return 1"
	script.FilterExpression = "[NAME] = 'Vienne'"

	if err := layer.CreateLabels(); err != nil {
		t.Fatalf("CreateLabels: %v", err)
	}
	if diff := cmp.Diff([]string{"Nice (342,669)", "Lyon (513,275)"}, labelTexts(layer.Labels)); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Category 2"}, layer.ScriptCategories); diff != "" {
		t.Fatalf("script categories mismatch (-want +got):\n%s", diff)
	}
	if l := layer.Labels[1]; l.Anchor != curve.Pt(10, 20) || l.Category != big || l.FID != 0 {
		t.Fatalf("unexpected label %+v", l)
	}

	// 去掉脚本分类后，Vienne 回到默认分类。
	if err := layer.Symbology.Remove(script); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	big.Symbolizer.PrioritizeLowValues = true
	if err := layer.CreateLabels(); err != nil {
		t.Fatalf("CreateLabels: %v", err)
	}
	if diff := cmp.Diff([]string{"Lyon (513,275)", "Nice (342,669)", "Vienne"}, labelTexts(layer.Labels)); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if layer.ScriptCategories != nil {
		t.Fatalf("script categories should be reset")
	}
}

func TestCreateLabelsBadFilter(t *testing.T) {
	layer := NewLabelLayer(loadCities(t))
	layer.Symbology.Categories[0].FilterExpression = "[POP] >"
	if err := layer.CreateLabels(); err == nil {
		t.Fatalf("expected filter error")
	}
}

func TestLabelAngleFromField(t *testing.T) {
	layer := NewLabelLayer(loadCities(t))
	symb := layer.Symbology.Categories[0].Symbolizer
	layer.Symbology.Categories[0].Expression = "[NAME]"
	symb.UseLabelAngleField = true
	symb.LabelAngleField = "POP"
	symb.PriorityField = "NAME"
	if err := layer.CreateLabels(); err != nil {
		t.Fatalf("CreateLabels: %v", err)
	}
	if len(layer.Labels) != 3 || layer.Labels[0].Angle != 513275 {
		t.Fatalf("unexpected labels %+v", layer.Labels)
	}
	symb.UseAngle = true
	symb.Angle = 30
	if err := layer.CreateLabels(); err != nil {
		t.Fatalf("CreateLabels: %v", err)
	}
	if layer.Labels[0].Angle != 30 {
		t.Fatalf("UseAngle should win, got %v", layer.Labels[0].Angle)
	}
}

func TestLineAnchors(t *testing.T) {
	g := Geometry{Kind: LineGeometry, Parts: [][]curve.Point{{curve.Pt(0, 0), curve.Pt(10, 0), curve.Pt(10, 40)}}}
	s := NewLabelSymbolizer()
	cases := []struct {
		method LineLabelPlacementMethod
		orient LineOrientation
		want   Anchor
	}{
		{LongestSegment, Parallel, Anchor{Point: curve.Pt(10, 20), Angle: 90}},
		{FirstSegment, Parallel, Anchor{Point: curve.Pt(5, 0), Angle: 0}},
		{FirstSegment, Perpendicular, Anchor{Point: curve.Pt(5, 0), Angle: 90}},
		{LastSegment, Parallel, Anchor{Point: curve.Pt(10, 20), Angle: 90}},
		{MiddleSegment, Parallel, Anchor{Point: curve.Pt(5, 0), Angle: 0}},
	}
	for _, tc := range cases {
		s.LineLabelPlacementMethod = tc.method
		s.LineOrientation = tc.orient
		got := g.Anchors(s)
		if len(got) != 1 || got[0].Point != tc.want.Point || !near(got[0].Angle, tc.want.Angle) {
			t.Fatalf("%v/%v: got %+v, want %+v", tc.method, tc.orient, got, tc.want)
		}
	}

	back := Geometry{Kind: LineGeometry, Parts: [][]curve.Point{{curve.Pt(10, 0), curve.Pt(0, 0)}}}
	if a := back.Anchors(s)[0]; !near(a.Angle, 0) {
		t.Fatalf("leftward segment should read upright, got %v", a.Angle)
	}
}

func TestPolygonAnchors(t *testing.T) {
	square := func(x, y, size float64) []curve.Point {
		return []curve.Point{curve.Pt(x, y), curve.Pt(x+size, y), curve.Pt(x+size, y+size), curve.Pt(x, y+size)}
	}
	s := NewLabelSymbolizer()
	g := Geometry{Kind: PolygonGeometry, Parts: [][]curve.Point{square(0, 0, 10), square(100, 100, 20)}}
	got := g.Anchors(s)
	if len(got) != 1 || !nearPoint(got[0].Point, curve.Pt(110, 110)) {
		t.Fatalf("largest part anchor = %+v", got)
	}
	s.PartsLabelingMethod = LabelAllParts
	if got := g.Anchors(s); len(got) != 2 || !nearPoint(got[0].Point, curve.Pt(5, 5)) {
		t.Fatalf("all parts anchors = %+v", got)
	}

	// U 形：质心落在缺口里。
	u := Geometry{Kind: PolygonGeometry, Parts: [][]curve.Point{{
		curve.Pt(0, 0), curve.Pt(30, 0), curve.Pt(30, 30), curve.Pt(20, 30),
		curve.Pt(20, 10), curve.Pt(10, 10), curve.Pt(10, 30), curve.Pt(0, 30),
	}}}
	c := u.Anchors(s)[0].Point
	if !near(c.X, 15) || !near(c.Y, 95.0/7) {
		t.Fatalf("centroid = %v", c)
	}
	s.LabelPlacementMethod = InteriorPoint
	p := u.Anchors(s)[0].Point
	if !near(p.X, 5) || !near(p.Y, 95.0/7) {
		t.Fatalf("interior point = %v", p)
	}
}

const shapes = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"NAME": "Ring"}, "geometry": {"type": "Polygon", "coordinates": [
      [[0, 0], [100, 0], [100, 100], [0, 100], [0, 0]],
      [[10, 10], [10, 90], [90, 90], [90, 10], [10, 10]]
    ]}},
    {"type": "Feature", "properties": {"NAME": "Mixed"}, "geometry": {"type": "GeometryCollection", "geometries": [
      {"type": "Point", "coordinates": [500, 500]},
      {"type": "Polygon", "coordinates": [[[200, 0], [240, 0], [240, 40], [200, 40], [200, 0]]]}
    ]}}
  ]
}`

func TestLoadGeoJSONKeepsHoles(t *testing.T) {
	fl, err := LoadFeatureLayer("shapes", strings.NewReader(shapes))
	if err != nil {
		t.Fatalf("LoadFeatureLayer: %v", err)
	}
	if fl.Kind != PolygonGeometry {
		t.Fatalf("kind = %v", fl.Kind)
	}
	ring := fl.Geometries[0]
	if len(ring.Parts) != 1 || len(ring.Holes) != 1 || len(ring.Holes[0]) != 1 {
		t.Fatalf("expected one part with one hole, got %+v", ring)
	}
	if got := ring.Holes[0][0][1]; got != curve.Pt(10, 90) {
		t.Fatalf("hole vertex = %v", got)
	}

	mixed := fl.Geometries[1]
	if mixed.Kind != PolygonGeometry || len(mixed.Parts) != 1 {
		t.Fatalf("collection should keep its polygon, got %+v", mixed)
	}
}

func TestDonutAnchors(t *testing.T) {
	fl, err := LoadFeatureLayer("shapes", strings.NewReader(shapes))
	if err != nil {
		t.Fatalf("LoadFeatureLayer: %v", err)
	}
	donut := fl.Geometries[0]
	s := NewLabelSymbolizer()

	s.LabelPlacementMethod = Centroid
	if got := donut.Anchors(s); len(got) != 1 || !nearPoint(got[0].Point, curve.Pt(50, 50)) {
		t.Fatalf("centroid anchors = %+v", got)
	}

	// 质心落在洞里，改取左侧的实心区间。
	s.LabelPlacementMethod = InteriorPoint
	if got := donut.Anchors(s); len(got) != 1 || !nearPoint(got[0].Point, curve.Pt(5, 50)) {
		t.Fatalf("interior anchors = %+v", got)
	}

	// 挖去洞后面积 3600，小于 70×70 的实心方块。
	pair := Geometry{
		Kind:  PolygonGeometry,
		Parts: [][]curve.Point{donut.Parts[0], {curve.Pt(200, 0), curve.Pt(270, 0), curve.Pt(270, 70), curve.Pt(200, 70)}},
		Holes: [][][]curve.Point{donut.Holes[0], nil},
	}
	s.PartsLabelingMethod = LabelLargestPart
	if got := pair.Anchors(s); len(got) != 1 || !nearPoint(got[0].Point, curve.Pt(235, 35)) {
		t.Fatalf("largest part anchors = %+v", got)
	}
}

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		v      float64
		format string
		want   string
	}{
		{1234.5, "", "1234.5"},
		{1234.5, "N2", "1,234.50"},
		{-1234567, "N0", "-1,234,567"},
		{2.6, "F0", "3"},
		{3.14159, "F", "3.14"},
		{1234.5, "E2", "1.23e+03"},
		{0.125, "P1", "12.5%"},
		{3.14159, "0.0", "3.1"},
		{1234567.891, "#,##0.00", "1,234,567.89"},
		{42, "R", "42"},
		{1.5, "X9", "1.5"},
		{1.5, "Nabc", "1.5"},
	}
	for _, tc := range cases {
		if got := FormatFloat(tc.v, tc.format); got != tc.want {
			t.Fatalf("FormatFloat(%v, %q) = %q, want %q", tc.v, tc.format, got, tc.want)
		}
	}
}

func TestEnumNames(t *testing.T) {
	for _, m := range LinePlacementMethods {
		got, ok := ParseLinePlacementMethod(strings.ToLower(m.String()))
		if !ok || got != m {
			t.Fatalf("round trip of %v failed", m)
		}
	}
	if _, ok := ParsePlacementMethod("nowhere"); ok {
		t.Fatalf("unknown name should not parse")
	}
	if o, ok := ParseLineOrientation(" perpendicular "); !ok || o != Perpendicular {
		t.Fatalf("ParseLineOrientation = %v, %v", o, ok)
	}
}
