package httpserver

import (
	"strconv"
	"strings"
)

// RouteKind enumerates the closed set of requests the server understands
type RouteKind int

const (
	// RouteNone means the (method, path) pair matched nothing
	RouteNone RouteKind = iota
	// RouteAuth is POST /auth
	RouteAuth
	// RouteGetUser is GET /user
	RouteGetUser
	// RouteRegisterUser is PUT /user
	RouteRegisterUser
	// RouteEditUser is PATCH /user
	RouteEditUser
	// RouteBanUser is PUT /blacklist/user/{login}
	RouteBanUser
	// RouteUnbanUser is DELETE /blacklist/user/{login}
	RouteUnbanUser
	// RouteBanSubnet is PUT /blacklist/subnet/{addr}/{mask}
	RouteBanSubnet
	// RouteUnbanSubnet is DELETE /blacklist/subnet/{addr}/{mask}
	RouteUnbanSubnet
)

// Route is a resolved request kind plus its captured path parameters
type Route struct {
	Kind  RouteKind
	Login string // BanUser / UnbanUser
	Addr  string // BanSubnet / UnbanSubnet, unvalidated dotted quad
	Mask  uint8  // BanSubnet / UnbanSubnet, may still exceed 32
}

// ResolveRoute maps (method, path) onto the route table. Matching is
// exact-arity: a trailing slash produces an extra empty segment and
// never matches. Unknown shapes and wrong methods yield RouteNone.
func ResolveRoute(method, path string) Route {
	none := Route{Kind: RouteNone}

	if !strings.HasPrefix(path, "/") {
		return none
	}
	segments := strings.Split(path[1:], "/")

	switch segments[0] {
	case "auth":
		if len(segments) != 1 || method != "POST" {
			return none
		}
		return Route{Kind: RouteAuth}

	case "user":
		if len(segments) != 1 {
			return none
		}
		switch method {
		case "GET":
			return Route{Kind: RouteGetUser}
		case "PUT":
			return Route{Kind: RouteRegisterUser}
		case "PATCH":
			return Route{Kind: RouteEditUser}
		}
		return none

	case "blacklist":
		if len(segments) < 2 {
			return none
		}
		switch segments[1] {
		case "user":
			if len(segments) != 3 || segments[2] == "" {
				return none
			}
			switch method {
			case "PUT":
				return Route{Kind: RouteBanUser, Login: segments[2]}
			case "DELETE":
				return Route{Kind: RouteUnbanUser, Login: segments[2]}
			}
			return none

		case "subnet":
			if len(segments) != 4 || segments[2] == "" {
				return none
			}
			mask, err := strconv.ParseUint(segments[3], 10, 8)
			if err != nil {
				return none
			}
			switch method {
			case "PUT":
				return Route{Kind: RouteBanSubnet, Addr: segments[2], Mask: uint8(mask)}
			case "DELETE":
				return Route{Kind: RouteUnbanSubnet, Addr: segments[2], Mask: uint8(mask)}
			}
			return none
		}
		return none
	}

	return none
}
