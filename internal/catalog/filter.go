package catalog

import (
	"sort"
	"strings"

	geo "github.com/kellydunn/golang-geo"

	"github.com/langchou/sparkreach/internal/models"
)

// 类型筛选的特殊取值
const (
	TypeAll        = "all"
	TypeCompatible = "compatible"
)

// Query 列表筛选条件
type Query struct {
	Search     string   // 匹配 location 或 area，不区分大小写
	Type       string   // all / compatible / 具体类型
	Compatible []string // 当前用户的兼容类型
}

// MatchesSearch 检查 location 或 area 是否包含搜索词
func MatchesSearch(c *models.Charger, search string) bool {
	if search == "" {
		return true
	}
	q := strings.ToLower(search)
	return strings.Contains(strings.ToLower(c.Location), q) ||
		strings.Contains(strings.ToLower(c.Area), q)
}

// Filter 按搜索词与类型筛选，保持原有顺序
func Filter(chargers []*models.Charger, q Query) []*models.Charger {
	search := strings.TrimSpace(q.Search)
	out := make([]*models.Charger, 0, len(chargers))

	for _, c := range chargers {
		if !MatchesSearch(c, search) {
			continue
		}

		switch q.Type {
		case "", TypeAll:
		case TypeCompatible:
			// 未登录或没有兼容列表时不过滤
			if len(q.Compatible) > 0 && !contains(q.Compatible, c.Type) {
				continue
			}
		default:
			if c.Type != q.Type {
				continue
			}
		}

		out = append(out, c)
	}
	return out
}

// NearbyResult 附近充电桩
type NearbyResult struct {
	Charger    *models.Charger `json:"charger"`
	DistanceKm float64         `json:"distance_km"`
}

// Nearby 按大圆距离排序，radiusKm <= 0 表示不限制
func Nearby(chargers []*models.Charger, lat, lng, radiusKm float64) []NearbyResult {
	origin := geo.NewPoint(lat, lng)
	out := make([]NearbyResult, 0, len(chargers))

	for _, c := range chargers {
		d := origin.GreatCircleDistance(geo.NewPoint(c.Latitude, c.Longitude))
		if radiusKm > 0 && d > radiusKm {
			continue
		}
		out = append(out, NearbyResult{Charger: c, DistanceKm: d})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
