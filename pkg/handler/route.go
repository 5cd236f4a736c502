package handler

// Route type
type Route string

const (
	// RouteGet read a single key from the cache
	RouteGet Route = "get"
	// RouteSet upsert a single key
	RouteSet Route = "set"
	// RouteDelete remove keys
	RouteDelete Route = "delete"
	// RouteClear remove all keys
	RouteClear Route = "clear"
	// RouteMutate apply upserts, removals and clear in one write
	RouteMutate Route = "mutate"
	// RouteDump get the whole mapping
	RouteDump Route = "dump"
	// RoutePull re-read the gist file
	RoutePull Route = "pull"
)

// Routes lists all known routes
var Routes = []Route{RouteGet, RouteSet, RouteDelete, RouteClear, RouteMutate, RouteDump, RoutePull}

func (r Route) valid() bool {
	for _, route := range Routes {
		if r == route {
			return true
		}
	}
	return false
}
