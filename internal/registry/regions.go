package registry

// AllRegions is the sentinel region key meaning "every region at once".
// A version tagged with it is never fanned out into per-region rows.
const AllRegions = "*"

// DefaultRegion is used when a version or member names no region.
const DefaultRegion = "default"

// Region describes a geographic or market scope.
type Region struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Flag        string `json:"flag"`
	Description string `json:"description"`
}

// AllRegionsOption is the catalogue entry for the sentinel.
var AllRegionsOption = Region{
	Key:         AllRegions,
	Label:       "All regions",
	Flag:        "🌍",
	Description: "Applies to every region",
}

var regions = []Region{
	{Key: DefaultRegion, Label: "Default", Flag: "🌐", Description: "Global default release"},
	{Key: "cn", Label: "Mainland China", Flag: "🇨🇳", Description: "Mainland China"},
	{Key: "hk", Label: "Hong Kong", Flag: "🇭🇰", Description: "Hong Kong SAR"},
	{Key: "us", Label: "United States", Flag: "🇺🇸", Description: "United States"},
	{Key: "eu", Label: "Europe", Flag: "🇪🇺", Description: "Europe"},
	{Key: "sea", Label: "Southeast Asia", Flag: "🌏", Description: "Southeast Asia"},
	{Key: "sg", Label: "Singapore", Flag: "🇸🇬", Description: "Singapore"},
	{Key: "jp", Label: "Japan", Flag: "🇯🇵", Description: "Japan"},
	{Key: "kr", Label: "South Korea", Flag: "🇰🇷", Description: "South Korea"},
}

// Regions returns a copy of the concrete region catalogue.
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// MemberRegionOptions returns the sentinel followed by every concrete region.
func MemberRegionOptions() []Region {
	return append([]Region{AllRegionsOption}, regions...)
}

// RegionByKey looks up a region, including the sentinel.
func RegionByKey(key string) (Region, bool) {
	if key == AllRegions {
		return AllRegionsOption, true
	}
	for _, r := range regions {
		if r.Key == key {
			return r, true
		}
	}
	return Region{}, false
}

// IsRegion reports whether key is a concrete region or the sentinel.
func IsRegion(key string) bool {
	_, ok := RegionByKey(key)
	return ok
}

// RegionLabel returns the display label, or the key itself when unknown.
func RegionLabel(key string) string {
	if r, ok := RegionByKey(key); ok {
		return r.Label
	}
	return key
}

// RegionFlag returns the region flag, or a globe when unknown.
func RegionFlag(key string) string {
	if r, ok := RegionByKey(key); ok {
		return r.Flag
	}
	return "🌐"
}

// RegionDescription returns the region description, or "" when unknown.
func RegionDescription(key string) string {
	if r, ok := RegionByKey(key); ok {
		return r.Description
	}
	return ""
}

// NormalizeRegions collapses a member's region list: empty becomes the default
// region, anything containing the sentinel becomes just the sentinel, and
// duplicates are dropped keeping first-seen order.
func NormalizeRegions(keys []string) []string {
	if len(keys) == 0 {
		return []string{DefaultRegion}
	}
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == AllRegions {
			return []string{AllRegions}
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
