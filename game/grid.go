package game

// GenerateGrid 生成以原点为中心、半径 radius 内的全部格子
// 顺序：q 升序，同 q 下 r 升序；仅用于遍历，调用方不应依赖跨次调用的顺序
func GenerateGrid(radius int) []Hex {
	if radius < 0 {
		return nil
	}
	out := make([]Hex, 0, GridSize(radius))
	for q := -radius; q <= radius; q++ {
		r1 := max(-radius, -q-radius)
		r2 := min(radius, -q+radius)
		for r := r1; r <= r2; r++ {
			out = append(out, Hex{Q: q, R: r})
		}
	}
	return out
}

// GridSize 半径 R 的六边形区域格子数：3R² + 3R + 1
func GridSize(radius int) int {
	if radius < 0 {
		return 0
	}
	return 3*radius*radius + 3*radius + 1
}

// Grid 带坐标索引的网格，成员判断 O(1)
type Grid struct {
	radius int
	hexes  []Hex
	index  map[Hex]struct{}
}

func NewGrid(radius int) *Grid {
	hexes := GenerateGrid(radius)
	idx := make(map[Hex]struct{}, len(hexes))
	for _, h := range hexes {
		idx[h] = struct{}{}
	}
	return &Grid{radius: radius, hexes: hexes, index: idx}
}

func (g *Grid) Radius() int { return g.radius }

func (g *Grid) Len() int { return len(g.hexes) }

// Hexes 返回只读切片，调用方不得修改
func (g *Grid) Hexes() []Hex { return g.hexes }

func (g *Grid) Contains(h Hex) bool {
	_, ok := g.index[h]
	return ok
}

// Ring 距原点恰好为 dist 的格子
func (g *Grid) Ring(dist int) []Hex {
	var out []Hex
	for _, h := range g.hexes {
		if h.DistanceTo(Origin) == dist {
			out = append(out, h)
		}
	}
	return out
}
