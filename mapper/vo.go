package mapper

import (
	"path"
	"strings"
)

// extractVOName derives a coarse "virtual organization" accounting bucket
// from an access path's leading directory components. It mirrors the
// storage-area conventions of OSG's production deployments; a path under a
// known prefix with fewer components than that convention uses falls back
// to its first two path components, and a path matching no known prefix
// (or with no components at all) yields "unknown directory". This is
// OSG-specific enrichment, absent from the core correlation contract, and
// never blocks event emission when it cannot be derived.
//
// Ref: https://github.com/opensciencegrid/xrootd-monitoring-collector/blob/master/Collectors/DetailedCollector.py#L174
func extractVOName(lfn []byte) string {
	filename := string(lfn)
	if filename == "" || filename == "unknown" || filename == "/" {
		return "unknown directory"
	}

	cleanPath := path.Clean(filename)
	parts := strings.Split(strings.TrimPrefix(cleanPath, "/"), "/")

	var dirname2 string
	if len(parts) > 1 && parts[0] != "" {
		dirname2 = "/" + path.Join(parts[0], parts[1])
	} else if len(parts) > 0 && parts[0] != "" {
		dirname2 = "/" + parts[0]
	} else {
		dirname2 = "unknown directory"
	}

	switch {
	case strings.HasPrefix(cleanPath, "/user"):
		return dirname2
	case strings.HasPrefix(cleanPath, "/osgconnect/public"), strings.HasPrefix(cleanPath, "/osgconnect/protected"), strings.HasPrefix(cleanPath, "/ospool/PROTECTED"):
		if len(parts) >= 3 {
			return "/" + path.Join(parts[0], parts[1], parts[2])
		}
		return dirname2
	case strings.HasPrefix(cleanPath, "/ospool"):
		if len(parts) >= 4 {
			return "/" + path.Join(parts[0], parts[1], parts[2], parts[3])
		}
		return dirname2
	case strings.HasPrefix(cleanPath, "/path-facility"):
		if len(parts) >= 3 {
			return "/" + path.Join(parts[0], parts[1], parts[2])
		}
		return dirname2
	case strings.HasPrefix(cleanPath, "/hcc"):
		if len(parts) >= 5 {
			return "/" + path.Join(parts[0], parts[1], parts[2], parts[3], parts[4])
		}
		return dirname2
	case strings.HasPrefix(cleanPath, "/pnfs/fnal.gov/usr"):
		if len(parts) >= 4 {
			return "/" + path.Join(parts[0], parts[1], parts[2], parts[3])
		}
		return dirname2
	case strings.HasPrefix(cleanPath, "/gwdata"):
		return dirname2
	case strings.HasPrefix(cleanPath, "/chtc/"):
		return "/chtc"
	case strings.HasPrefix(cleanPath, "/icecube/"):
		return "/icecube"
	case strings.HasPrefix(cleanPath, "/igwn"):
		if len(parts) >= 3 {
			return "/" + path.Join(parts[0], parts[1], parts[2])
		}
		return dirname2
	case strings.HasPrefix(cleanPath, "/store"), strings.HasPrefix(cleanPath, "/user/dteam"):
		return dirname2
	default:
		return "unknown directory"
	}
}
