package vision

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Point is a 2D pixel coordinate. Unlike WorldPoint in a world-frame
// tracker, Point lives entirely in the CroppedFrame's pixel space.
type Point struct {
	X, Y float64
}

// Contour is an ordered polygon boundary traced from a Mask.
type Contour []Point

// RotatedRect is a minimum-area bounding rectangle: center, (width, height)
// side lengths, and rotation angle in degrees.
type RotatedRect struct {
	Center Point
	Size   [2]float64 // (a, b) side lengths
	Angle  float64
}

// Ellipse is a fitted or synthesized ellipse: center, (a, b) semi-axis-ish
// extents (matching the source's (width, height) axis convention from
// cv2.fitEllipse, i.e. full axis lengths), and rotation angle in degrees.
type Ellipse struct {
	Center Point
	Axes   [2]float64 // (a, b)
	Angle  float64
}

// FindExternalContours traces the outer boundary of every 8-connected
// foreground (255) region in the mask, in the style of OpenCV's
// RETR_EXTERNAL + CHAIN_APPROX_SIMPLE. No CV library appears anywhere in
// the retrieved corpus, so boundary tracing (Moore-neighbor / "square
// tracing") is a hand-rolled standard computational-geometry algorithm; see
// DESIGN.md.
func FindExternalContours(m *Mask) []Contour {
	visited := make([]bool, len(m.Pix))
	var contours []Contour

	isFG := func(x, y int) bool {
		if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
			return false
		}
		return m.Pix[y*m.Width+x] != 0
	}

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			idx := y*m.Width + x
			if !isFG(x, y) || visited[idx] {
				continue
			}
			// Only start tracing from a boundary pixel whose west neighbor
			// is background, to avoid re-tracing the same region from its
			// interior on a later raster scan position.
			if isFG(x-1, y) {
				continue
			}
			c := traceBoundary(isFG, x, y)
			// Mark the whole 8-connected region visited, not just its outer
			// boundary, so the boundaries of holes inside it are not traced.
			visited[idx] = true
			stack := [][2]int{{x, y}}
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for _, d := range moore8 {
					nx, ny := p[0]+d[0], p[1]+d[1]
					if isFG(nx, ny) && !visited[ny*m.Width+nx] {
						visited[ny*m.Width+nx] = true
						stack = append(stack, [2]int{nx, ny})
					}
				}
			}
			if len(c) >= 1 {
				contours = append(contours, c)
			}
		}
	}
	return contours
}

// moore8 lists the 8 neighbor offsets in clockwise order starting "west",
// used by the Moore-neighbor boundary tracing algorithm below.
var moore8 = [8][2]int{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

func traceBoundary(isFG func(x, y int) bool, startX, startY int) Contour {
	contour := Contour{{X: float64(startX), Y: float64(startY)}}
	cx, cy := startX, startY
	// backtrack direction: the direction we arrived from, so the search for
	// the next boundary pixel begins just past it.
	backDir := 0

	for steps := 0; steps < 4*1024*1024; steps++ {
		found := false
		for i := 0; i < 8; i++ {
			dir := (backDir + i) % 8
			nx, ny := cx+moore8[dir][0], cy+moore8[dir][1]
			if isFG(nx, ny) {
				cx, cy = nx, ny
				backDir = (dir + 5) % 8 // look starting near where we came from
				found = true
				break
			}
		}
		if !found {
			break
		}
		if cx == startX && cy == startY {
			break
		}
		contour = append(contour, Point{X: float64(cx), Y: float64(cy)})
	}
	return contour
}

// ContourArea computes the polygon area via the shoelace formula, matching
// cv2.contourArea's use as a ranking/filtering key.
func ContourArea(c Contour) float64 {
	n := len(c)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	return math.Abs(sum) / 2
}

// ArcLength computes the perimeter of a (closed) contour.
func ArcLength(c Contour) float64 {
	n := len(c)
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += math.Hypot(c[j].X-c[i].X, c[j].Y-c[i].Y)
	}
	return sum
}

// SortByAreaDescending returns contours within (minArea, maxArea) exclusive
// bounds, sorted by descending area, mirroring look_through_contours in the
// reference source.
func SortByAreaDescending(contours []Contour, minArea, maxArea float64) []Contour {
	type scored struct {
		c Contour
		a float64
	}
	var kept []scored
	for _, c := range contours {
		a := ContourArea(c)
		if a > minArea && a < maxArea {
			kept = append(kept, scored{c, a})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].a > kept[j].a })
	out := make([]Contour, len(kept))
	for i, s := range kept {
		out[i] = s.c
	}
	return out
}

// Moments computes the centroid of a contour using the image-moment
// convention (m10/m00, m01/m00), treating the polygon as a filled region.
func Moments(c Contour) (cx, cy float64, m00 float64) {
	n := len(c)
	if n < 3 {
		// Degenerate: fall back to the arithmetic mean of points.
		if n == 0 {
			return 0, 0, 0
		}
		for _, p := range c {
			cx += p.X
			cy += p.Y
		}
		return cx / float64(n), cy / float64(n), float64(n)
	}

	var a, sx, sy float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := c[i].X*c[j].Y - c[j].X*c[i].Y
		a += cross
		sx += (c[i].X + c[j].X) * cross
		sy += (c[i].Y + c[j].Y) * cross
	}
	a /= 2
	if a == 0 {
		for _, p := range c {
			cx += p.X
			cy += p.Y
		}
		return cx / float64(n), cy / float64(n), 0
	}
	cx = sx / (6 * a)
	cy = sy / (6 * a)
	return cx, cy, math.Abs(a)
}

// FitEllipse fits an ellipse to a contour of >= 5 points using the
// covariance/eigen-decomposition method: the centroid and the eigenvectors
// of the point scatter matrix (decomposed via gonum's EigenSym) give the
// ellipse center, orientation, and axis lengths (scaled so the ellipse's
// second moments match the contour's). This stands in for cv2.fitEllipse's
// direct least-squares fit — see DESIGN.md.
func FitEllipse(c Contour) (Ellipse, bool) {
	n := len(c)
	if n < 5 {
		return Ellipse{}, false
	}

	var mx, my float64
	for _, p := range c {
		mx += p.X
		my += p.Y
	}
	mx /= float64(n)
	my /= float64(n)

	var sxx, syy, sxy float64
	for _, p := range c {
		dx, dy := p.X-mx, p.Y-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	sxx /= float64(n)
	syy /= float64(n)
	sxy /= float64(n)

	// Eigen-decomposition of the symmetric 2x2 scatter matrix [[sxx, sxy],
	// [sxy, syy]] via gonum, in place of a hand-rolled characteristic
	// polynomial; the eigenvalues give the axis lengths and the leading
	// eigenvector gives the orientation.
	cov := mat.NewSymDense(2, []float64{sxx, sxy, sxy, syy})
	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return Ellipse{}, false
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// gonum orders eigenvalues ascending; the ellipse's major axis follows
	// the larger one.
	lambda1, lambda2 := values[1], values[0]
	if lambda2 < 0 {
		lambda2 = 0
	}
	major := vectors.ColView(1)

	// Axis lengths: 4*sqrt(eigenvalue) approximates the full-axis convention
	// used by cv2.fitEllipse for a uniformly filled ellipse.
	a := 4 * math.Sqrt(lambda1)
	b := 4 * math.Sqrt(lambda2)
	if math.IsNaN(a) || math.IsNaN(b) || math.IsNaN(mx) || math.IsNaN(my) {
		return Ellipse{}, false
	}

	angle := math.Atan2(major.AtVec(1), major.AtVec(0)) * 180 / math.Pi

	return Ellipse{Center: Point{X: mx, Y: my}, Axes: [2]float64{a, b}, Angle: angle}, true
}

// ConvexHull computes the convex hull of a point set via Andrew's monotone
// chain algorithm, returned in counter-clockwise order.
func ConvexHull(points []Point) []Point {
	pts := append([]Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	// de-dup
	uniq := pts[:0]
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			uniq = append(uniq, p)
		}
	}
	pts = uniq
	n := len(pts)
	if n < 3 {
		return pts
	}

	cross := func(o, a, b Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	lower := make([]Point, 0, n)
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	upper := make([]Point, 0, n)
	for i := n - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	return hull
}

// MinAreaRect computes the minimum-area bounding rectangle of a point set
// using rotating calipers over the convex hull, matching cv2.minAreaRect.
func MinAreaRect(points []Point) RotatedRect {
	hull := ConvexHull(points)
	if len(hull) == 0 {
		return RotatedRect{}
	}
	if len(hull) == 1 {
		return RotatedRect{Center: hull[0]}
	}
	if len(hull) == 2 {
		cx := (hull[0].X + hull[1].X) / 2
		cy := (hull[0].Y + hull[1].Y) / 2
		length := math.Hypot(hull[1].X-hull[0].X, hull[1].Y-hull[0].Y)
		angle := math.Atan2(hull[1].Y-hull[0].Y, hull[1].X-hull[0].X) * 180 / math.Pi
		return RotatedRect{Center: Point{cx, cy}, Size: [2]float64{length, 0}, Angle: angle}
	}

	bestArea := math.Inf(1)
	var best RotatedRect
	n := len(hull)
	for i := 0; i < n; i++ {
		p1 := hull[i]
		p2 := hull[(i+1)%n]
		edgeAngle := math.Atan2(p2.Y-p1.Y, p2.X-p1.X)
		cosA, sinA := math.Cos(-edgeAngle), math.Sin(-edgeAngle)

		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, p := range hull {
			rx := p.X*cosA - p.Y*sinA
			ry := p.X*sinA + p.Y*cosA
			if rx < minX {
				minX = rx
			}
			if rx > maxX {
				maxX = rx
			}
			if ry < minY {
				minY = ry
			}
			if ry > maxY {
				maxY = ry
			}
		}
		w := maxX - minX
		h := maxY - minY
		area := w * h
		if area < bestArea {
			bestArea = area
			// Rotate the rectangle center back to world space.
			ccx := (minX + maxX) / 2
			ccy := (minY + maxY) / 2
			cosB, sinB := math.Cos(edgeAngle), math.Sin(edgeAngle)
			wx := ccx*cosB - ccy*sinB
			wy := ccx*sinB + ccy*cosB
			best = RotatedRect{
				Center: Point{X: wx, Y: wy},
				Size:   [2]float64{w, h},
				Angle:  edgeAngle * 180 / math.Pi,
			}
		}
	}
	return best
}

// ApproxPolyDP simplifies a closed contour using the Douglas-Peucker
// algorithm with the given epsilon, matching cv2.approxPolyDP(closed=true).
func ApproxPolyDP(c Contour, epsilon float64) Contour {
	if len(c) < 3 {
		return c
	}
	// Seed the recursive simplification from the two hull-ish extreme
	// points (max distance apart) to approximate OpenCV's closed-contour
	// behavior without needing its internal split heuristic.
	i0, i1 := farthestPair(c)
	var result Contour
	result = append(result, dpSegment(c, i0, i1, epsilon)...)
	result = append(result, dpSegment(c, i1, i0, epsilon)...)
	return dedupClosed(result)
}

func farthestPair(c Contour) (int, int) {
	best := -1.0
	bi, bj := 0, 0
	for i := 0; i < len(c); i++ {
		for j := i + 1; j < len(c); j++ {
			d := math.Hypot(c[i].X-c[j].X, c[i].Y-c[j].Y)
			if d > best {
				best = d
				bi, bj = i, j
			}
		}
	}
	return bi, bj
}

// dpSegment simplifies the contour walking forward (with wraparound) from
// index i0 to i1 and returns the kept points including the start but
// excluding the end (the caller appends the matching return leg).
func dpSegment(c Contour, i0, i1 int, epsilon float64) Contour {
	n := len(c)
	var idx []int
	for i := i0; ; i = (i + 1) % n {
		idx = append(idx, i)
		if i == i1 {
			break
		}
	}
	pts := make(Contour, len(idx))
	for k, i := range idx {
		pts[k] = c[i]
	}
	simplified := douglasPeucker(pts, epsilon)
	if len(simplified) > 0 {
		simplified = simplified[:len(simplified)-1]
	}
	return simplified
}

func douglasPeucker(pts Contour, epsilon float64) Contour {
	if len(pts) < 3 {
		return pts
	}
	first, last := pts[0], pts[len(pts)-1]
	maxDist := -1.0
	maxIdx := 0
	for i := 1; i < len(pts)-1; i++ {
		d := pointLineDistance(pts[i], first, last)
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}
	if maxDist <= epsilon {
		return Contour{first, last}
	}
	left := douglasPeucker(pts[:maxIdx+1], epsilon)
	right := douglasPeucker(pts[maxIdx:], epsilon)
	return append(left[:len(left)-1], right...)
}

func pointLineDistance(p, a, b Point) float64 {
	if a == b {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	num := math.Abs((b.Y-a.Y)*p.X - (b.X-a.X)*p.Y + b.X*a.Y - b.Y*a.X)
	den := math.Hypot(b.Y-a.Y, b.X-a.X)
	return num / den
}

func dedupClosed(c Contour) Contour {
	if len(c) == 0 {
		return c
	}
	out := Contour{c[0]}
	for _, p := range c[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}
