package symbology

import (
	"fmt"
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"honnef.co/go/curve"
)

// GeometryKind 是图层的几何类型。
type GeometryKind int

const (
	NoGeometry GeometryKind = iota
	PointGeometry
	LineGeometry
	PolygonGeometry
)

func (k GeometryKind) String() string {
	switch k {
	case PointGeometry:
		return "point"
	case LineGeometry:
		return "line"
	case PolygonGeometry:
		return "polygon"
	default:
		return "none"
	}
}

// Geometry 保存一个要素的几何，多部件要素有多个 Parts。
// 面的 Parts[i] 是第 i 个部件的外环，Holes[i] 是它的内环。坐标单位为 pt，y 轴向下。
type Geometry struct {
	Kind  GeometryKind      `json:"kind"`
	Parts [][]curve.Point   `json:"parts"`
	Holes [][][]curve.Point `json:"holes,omitempty"`
}

// Anchor 是一个标注点及其沿几何方向的角度（度）。
type Anchor struct {
	Point curve.Point `json:"point"`
	Angle float64     `json:"angle"`
}

// Anchors 按符号器的放置规则计算标注点。
func (g Geometry) Anchors(s *LabelSymbolizer) []Anchor {
	if len(g.Parts) == 0 {
		return nil
	}
	idx := make([]int, len(g.Parts))
	for i := range idx {
		idx[i] = i
	}
	if s.PartsLabelingMethod == LabelLargestPart && len(idx) > 1 {
		idx = []int{g.largestPart()}
	}
	out := make([]Anchor, 0, len(idx))
	for _, i := range idx {
		part := g.Parts[i]
		if len(part) == 0 {
			continue
		}
		switch g.Kind {
		case LineGeometry:
			out = append(out, lineAnchor(part, s))
		case PolygonGeometry:
			out = append(out, Anchor{Point: polygonAnchor(g.polygon(i), s.LabelPlacementMethod)})
		default:
			out = append(out, Anchor{Point: part[0]})
		}
	}
	return out
}

// polygon returns part i with its holes as a closed orb polygon.
func (g Geometry) polygon(i int) orb.Polygon {
	poly := orb.Polygon{toRing(g.Parts[i])}
	if i < len(g.Holes) {
		for _, h := range g.Holes[i] {
			if len(h) >= 3 {
				poly = append(poly, toRing(h))
			}
		}
	}
	return poly
}

func (g Geometry) largestPart() int {
	best, bestSize := 0, -1.0
	for i, part := range g.Parts {
		var size float64
		switch g.Kind {
		case PolygonGeometry:
			if len(part) >= 3 {
				size = math.Abs(planar.Area(g.polygon(i)))
			}
		case LineGeometry:
			size = polylineLength(part)
		default:
			size = float64(len(part))
		}
		if size > bestSize {
			best, bestSize = i, size
		}
	}
	return best
}

func lineAnchor(part []curve.Point, s *LabelSymbolizer) Anchor {
	if len(part) == 1 {
		return Anchor{Point: part[0]}
	}
	n := len(part) - 1
	idx := 0
	switch s.LineLabelPlacementMethod {
	case FirstSegment:
		idx = 0
	case LastSegment:
		idx = n - 1
	case MiddleSegment:
		idx = (n - 1) / 2
	case LongestSegment:
		longest := -1.0
		for i := 0; i < n; i++ {
			if d := part[i].Distance(part[i+1]); d > longest {
				idx, longest = i, d
			}
		}
	}
	a, b := part[idx], part[idx+1]
	angle := segmentAngle(a, b)
	if s.LineOrientation == Perpendicular {
		angle = uprightAngle(angle + 90)
	}
	return Anchor{Point: a.Midpoint(b), Angle: angle}
}

// segmentAngle returns the clockwise angle of a→b in degrees, folded to
// [-90, 90] so text never reads upside down.
func segmentAngle(a, b curve.Point) float64 {
	return uprightAngle(b.Sub(a).Angle() * 180 / math.Pi)
}

func uprightAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	switch {
	case deg > 180:
		deg -= 360
	case deg <= -180:
		deg += 360
	}
	switch {
	case deg > 90:
		deg -= 180
	case deg < -90:
		deg += 180
	}
	return deg
}

func polylineLength(part []curve.Point) float64 {
	var l float64
	for i := 1; i < len(part); i++ {
		l += part[i-1].Distance(part[i])
	}
	return l
}

// toRing converts points to an orb ring, closing it when needed.
func toRing(pts []curve.Point) orb.Ring {
	r := make(orb.Ring, 0, len(pts)+1)
	for _, p := range pts {
		r = append(r, orb.Point{p.X, p.Y})
	}
	if len(r) > 0 && r[0] != r[len(r)-1] {
		r = append(r, r[0])
	}
	return r
}

func fromOrb(p orb.Point) curve.Point { return curve.Pt(p[0], p[1]) }

func fromRing(r orb.Ring) []curve.Point {
	out := make([]curve.Point, len(r))
	for i, p := range r {
		out[i] = fromOrb(p)
	}
	return out
}

// polygonAnchor 返回面的质心；InteriorPoint 方式下质心落在面外（包括落在洞里）时，
// 改用穿过质心的水平线上最宽的内部区间。
func polygonAnchor(poly orb.Polygon, method LabelPlacementMethod) curve.Point {
	outer := poly[0]
	if len(outer) < 4 {
		return fromOrb(outer[0])
	}
	c, area := planar.CentroidArea(poly)
	if area == 0 {
		c = outer.Bound().Center()
	}
	if method == Centroid || planar.PolygonContains(poly, c) {
		return fromOrb(c)
	}
	return interiorPoint(poly, c[1])
}

// interiorPoint 取水平线 y 与面（含全部内环）相交的最宽区间的中点。
// 交点按奇偶规则两两配对。
func interiorPoint(poly orb.Polygon, y float64) curve.Point {
	var xs []float64
	for _, ring := range poly {
		for i := range ring {
			p, q := ring[i], ring[(i+1)%len(ring)]
			if (p[1] <= y && q[1] > y) || (q[1] <= y && p[1] > y) {
				t := (y - p[1]) / (q[1] - p[1])
				xs = append(xs, p[0]+t*(q[0]-p[0]))
			}
		}
	}
	if len(xs) < 2 {
		return fromOrb(poly[0].Bound().Center())
	}
	slices.Sort(xs)
	best, width := curve.Pt(xs[0], y), -1.0
	for i := 0; i+1 < len(xs); i += 2 {
		if w := xs[i+1] - xs[i]; w > width {
			best, width = curve.Pt((xs[i]+xs[i+1])/2, y), w
		}
	}
	return best
}

// geometryFromOrb 把 GeoJSON 解出的几何转换为 Geometry。
// 几何集合只保留维度最高的成员：有面取面，否则取线，再否则取点。
func geometryFromOrb(g orb.Geometry) (Geometry, error) {
	var out Geometry
	switch v := g.(type) {
	case nil:
	case orb.Point:
		out = Geometry{Kind: PointGeometry, Parts: [][]curve.Point{{fromOrb(v)}}}
	case orb.MultiPoint:
		out.Kind = PointGeometry
		for _, p := range v {
			out.Parts = append(out.Parts, []curve.Point{fromOrb(p)})
		}
	case orb.LineString:
		out = Geometry{Kind: LineGeometry, Parts: [][]curve.Point{fromRing(orb.Ring(v))}}
	case orb.MultiLineString:
		out.Kind = LineGeometry
		for _, ls := range v {
			out.Parts = append(out.Parts, fromRing(orb.Ring(ls)))
		}
	case orb.Polygon:
		out.Kind = PolygonGeometry
		out.addPolygon(v)
	case orb.MultiPolygon:
		out.Kind = PolygonGeometry
		for _, poly := range v {
			out.addPolygon(poly)
		}
	case orb.Collection:
		for _, member := range v {
			sub, err := geometryFromOrb(member)
			if err != nil {
				return Geometry{}, err
			}
			switch {
			case sub.Kind > out.Kind:
				out = sub
			case sub.Kind == out.Kind:
				out.Parts = append(out.Parts, sub.Parts...)
				out.Holes = append(out.Holes, sub.Holes...)
			}
		}
	default:
		return out, fmt.Errorf("不支持的几何类型 %s", g.GeoJSONType())
	}
	return out, nil
}

func (g *Geometry) addPolygon(poly orb.Polygon) {
	if len(poly) == 0 {
		return
	}
	g.Parts = append(g.Parts, fromRing(poly[0]))
	var holes [][]curve.Point
	for _, h := range poly[1:] {
		holes = append(holes, fromRing(h))
	}
	g.Holes = append(g.Holes, holes)
}
