package projectctx

import (
	"path"
	"regexp"
	"strings"
)

// ParamToken replaces every path parameter segment during normalization.
const ParamToken = "[*]"

var paramSegment = regexp.MustCompile(`^(\[{1,2}\.{0,3}[^\]]*\]{1,2}|:\w+|\{\w+\})$`)

// NormalizeRoute canonicalizes a page path so that "/rewards/[id]",
// "/rewards/[tierId]/" and "/rewards/:id" compare equal.
func NormalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "/"
	}
	segments := strings.Split(strings.Trim(route, "/"), "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch {
		case seg == "":
			continue
		case paramSegment.MatchString(seg):
			out = append(out, ParamToken)
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/")
}

// NormalizeAPIRoute strips the "/api" prefix and the trailing "/route" file
// convention before normalizing, so "/api/rewards/route" and "/api/rewards"
// compare equal.
func NormalizeAPIRoute(route string) string {
	route = "/" + strings.Trim(strings.TrimSpace(route), "/")
	if route == "/api" || strings.HasPrefix(route, "/api/") {
		route = strings.TrimPrefix(route, "/api")
	}
	if ext := path.Ext(route); ext == ".ts" || ext == ".js" {
		route = strings.TrimSuffix(route, ext)
	}
	route = strings.TrimSuffix(route, "/route")
	return NormalizeRoute(route)
}

// routerRoot finds the "app" or "pages" directory a file belongs to, allowing
// an optional leading "src". It returns the router kind and the remaining segments.
func routerRoot(rel string) (string, []string) {
	parts := strings.Split(rel, "/")
	if len(parts) > 1 && parts[0] == "src" {
		parts = parts[1:]
	}
	if len(parts) < 2 {
		return "", nil
	}
	switch parts[0] {
	case "app", "pages":
		return parts[0], parts[1:]
	}
	return "", nil
}

// routeSegments drops route groups "(marketing)" and parallel slots "@modal",
// which do not appear in URLs.
func routeSegments(dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if strings.HasPrefix(d, "(") && strings.HasSuffix(d, ")") {
			continue
		}
		if strings.HasPrefix(d, "@") {
			continue
		}
		out = append(out, d)
	}
	return out
}

func joinRoute(segments []string) string {
	return "/" + strings.Join(segments, "/")
}

// pageRoutes derives page paths from app-router page files and pages-router modules.
func pageRoutes(files []string) []string {
	var routes []string
	for _, rel := range files {
		kind, rest := routerRoot(rel)
		switch kind {
		case "app":
			if !pageFilePattern.MatchString(rest[len(rest)-1]) {
				continue
			}
			segs := routeSegments(rest[:len(rest)-1])
			if len(segs) > 0 && segs[0] == "api" {
				continue
			}
			routes = append(routes, joinRoute(segs))
		case "pages":
			if rest[0] == "api" || !sourceExtPattern.MatchString(rel) {
				continue
			}
			base := sourceExtPattern.ReplaceAllString(rest[len(rest)-1], "")
			if strings.HasPrefix(base, "_") {
				continue
			}
			segs := append([]string{}, rest[:len(rest)-1]...)
			if base != "index" {
				segs = append(segs, base)
			}
			routes = append(routes, joinRoute(segs))
		}
	}
	return routes
}

// apiRoutes derives endpoint paths from app-router route handlers and
// pages-router api modules.
func apiRoutes(files []string) []string {
	var routes []string
	for _, rel := range files {
		kind, rest := routerRoot(rel)
		switch kind {
		case "app":
			if !routeFilePattern.MatchString(rest[len(rest)-1]) {
				continue
			}
			routes = append(routes, joinRoute(routeSegments(rest[:len(rest)-1])))
		case "pages":
			if rest[0] != "api" || !sourceExtPattern.MatchString(rel) {
				continue
			}
			base := sourceExtPattern.ReplaceAllString(rest[len(rest)-1], "")
			segs := append([]string{}, rest[:len(rest)-1]...)
			if base != "index" {
				segs = append(segs, base)
			}
			routes = append(routes, joinRoute(segs))
		}
	}
	return routes
}

// componentNames lists UI components found under any "components" directory.
func componentNames(files []string) []string {
	var names []string
	for _, rel := range files {
		if !strings.HasSuffix(rel, ".tsx") && !strings.HasSuffix(rel, ".jsx") {
			continue
		}
		if !strings.HasPrefix(rel, "components/") && !strings.Contains(rel, "/components/") {
			continue
		}
		base := path.Base(rel)
		name := strings.TrimSuffix(base, path.Ext(base))
		if strings.Contains(name, ".") {
			continue
		}
		if name == "index" {
			name = path.Base(path.Dir(rel))
		}
		names = append(names, name)
	}
	return names
}
