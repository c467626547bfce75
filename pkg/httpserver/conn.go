package httpserver

import (
	"encoding/json"
	"errors"
	"net"
	"net/netip"

	"github.com/rs/xid"

	"github.com/crastinus/hlfun-auth-srv/pkg/auth"
	"github.com/crastinus/hlfun-auth-srv/pkg/bans"
	"github.com/crastinus/hlfun-auth-srv/pkg/logging"
	"github.com/crastinus/hlfun-auth-srv/pkg/users"
)

const (
	// DefaultMaxHeaderBytes is the request head ceiling (10 KiB)
	DefaultMaxHeaderBytes = 10 * 1024
	// DefaultMaxBodyBytes is the request body ceiling (100 KiB)
	DefaultMaxBodyBytes = 100 * 1024

	readChunkSize = 4 * 1024
)

// ConnectionProcessor owns one accepted TCP connection and drives it
// through repeated request/response cycles until the peer disconnects,
// a fatal protocol error occurs, or a resource limit is exceeded.
//
// One reusable buffer accumulates unconsumed bytes across cycles; all
// per-request state lives in the requestHead built each cycle, so
// nothing leaks between keep-alive requests.
type ConnectionProcessor struct {
	conn   net.Conn
	engine *auth.Engine
	bans   bans.Store

	maxHeaderBytes int
	maxBodyBytes   int

	id  string
	buf []byte

	writeBuf  []byte
	writeErrs int
}

// NewConnectionProcessor creates a processor for one accepted connection
func NewConnectionProcessor(conn net.Conn, engine *auth.Engine, banStore bans.Store, maxHeaderBytes, maxBodyBytes int) *ConnectionProcessor {
	if maxHeaderBytes <= 0 {
		maxHeaderBytes = DefaultMaxHeaderBytes
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &ConnectionProcessor{
		conn:           conn,
		engine:         engine,
		bans:           banStore,
		maxHeaderBytes: maxHeaderBytes,
		maxBodyBytes:   maxBodyBytes,
		id:             xid.New().String(),
		buf:            make([]byte, 0, readChunkSize),
	}
}

// Run processes requests until the connection is done, then closes it
func (p *ConnectionProcessor) Run() {
	defer p.conn.Close()
	logging.App.Debug("Connection opened", "conn", p.id, "remote", p.conn.RemoteAddr())
	for p.serveOne() {
	}
	logging.App.Debug("Connection closed", "conn", p.id)
}

// serveOne runs one AwaitHeaders -> AwaitBody -> Dispatch -> Respond
// cycle. It returns false when the connection must terminate.
func (p *ConnectionProcessor) serveOne() bool {
	// AwaitHeaders
	var head *requestHead
	for {
		h, err := parseHead(p.buf)
		if err == nil {
			head = h
			break
		}
		if errors.Is(err, errIncomplete) {
			if len(p.buf) > p.maxHeaderBytes {
				p.respond(status(431))
				return false
			}
			if !p.fill() {
				return false
			}
			continue
		}
		if errors.Is(err, errTooManyHeaders) {
			p.respond(status(431))
			return false
		}
		// Unparsable byte stream: no response is assembleable, close.
		logging.App.Debug("Unparsable request", "conn", p.id, "error", err)
		return false
	}
	if head.headerLen > p.maxHeaderBytes {
		p.respond(status(431))
		return false
	}

	// The route is resolved before the body is read; an unknown route is
	// remembered and answered only after the body has been drained so the
	// byte stream stays aligned for the next request.
	route := ResolveRoute(head.method, head.path)

	// AwaitBody
	if head.contentLength > p.maxBodyBytes {
		p.respond(status(413))
		return false
	}
	total := head.headerLen + head.contentLength
	for len(p.buf) < total {
		if !p.fill() {
			return false
		}
	}
	body := p.buf[head.headerLen:total]

	// Dispatch + Respond
	rsp := p.dispatch(head, route, body)
	ok := p.respond(rsp)

	ip := ""
	if head.hasClientIP {
		ip = head.clientIP.String()
	}
	logging.Access.LogRequest(p.id, ip, head.method, head.path, rsp.status)

	// Shift the remainder to the front of the reused buffer
	p.buf = append(p.buf[:0], p.buf[total:]...)
	return ok
}

// fill reads more bytes from the socket into the buffer. It returns
// false on EOF or read error; both terminate the connection silently.
func (p *ConnectionProcessor) fill() bool {
	chunk := make([]byte, readChunkSize)
	n, err := p.conn.Read(chunk)
	if n > 0 {
		p.buf = append(p.buf, chunk[:n]...)
	}
	if err != nil {
		return false
	}
	return n > 0
}

// respond serializes and writes the response. A write failure is logged
// and tolerated once; a second consecutive failure is connection-fatal.
func (p *ConnectionProcessor) respond(rsp response) bool {
	p.writeBuf = appendResponse(p.writeBuf[:0], rsp)
	if _, err := p.conn.Write(p.writeBuf); err != nil {
		p.writeErrs++
		logging.App.Warn("Response write failed", "conn", p.id, "status", rsp.status, "error", err)
		return p.writeErrs < 2
	}
	p.writeErrs = 0
	return true
}

// dispatch authorizes and executes one parsed request. Authorization
// failures are deliberately indistinguishable 403s.
func (p *ConnectionProcessor) dispatch(head *requestHead, route Route, body []byte) response {
	if route.Kind == RouteNone {
		return status(404)
	}
	if !head.hasClientIP {
		return status(403)
	}
	if p.bans.Contains(head.clientIP) {
		return status(403)
	}
	if head.apiKeyOversized {
		return status(400)
	}

	// Tokenless routes
	switch route.Kind {
	case RouteAuth:
		return p.handleAuth(head.clientIP, body)
	case RouteRegisterUser:
		return p.handleRegister(body)
	}

	// Everything else requires a verified bearer token whose login
	// passes its own geofence for the presenting IP.
	if head.apiKey == "" {
		return status(403)
	}
	login, err := p.engine.VerifyToken(head.apiKey)
	if err != nil {
		return status(400)
	}
	if !p.engine.Geofence(login, head.clientIP) {
		return status(403)
	}

	switch route.Kind {
	case RouteGetUser:
		return p.handleGetUser(login, head.clientIP)
	case RouteEditUser:
		return p.handleEditUser(login, body)
	}

	// Admin-only routes
	if !p.engine.IsAdmin(login, head.clientIP) {
		return status(403)
	}
	switch route.Kind {
	case RouteBanUser:
		return p.handleBanUser(route.Login)
	case RouteUnbanUser:
		return p.handleUnbanUser(route.Login)
	case RouteBanSubnet:
		return p.handleBanSubnet(route.Addr, route.Mask)
	case RouteUnbanSubnet:
		return p.handleUnbanSubnet(route.Addr, route.Mask)
	}
	return status(404)
}

func (p *ConnectionProcessor) handleAuth(ip netip.Addr, body []byte) response {
	var req authRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return status(400)
	}

	token, err := p.engine.Authenticate(req.Login, req.Password, req.Nonce, ip)
	if err != nil {
		logging.Access.LogAuth(p.id, req.Login, "denied")
		return status(403)
	}
	logging.Access.LogAuth(p.id, req.Login, "success")

	encoded, err := json.Marshal(token)
	if err != nil {
		return status(403)
	}
	return jsonResponse(200, encoded)
}

func (p *ConnectionProcessor) handleRegister(body []byte) response {
	var req registerUserRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Login == "" {
		return status(400)
	}

	err := p.engine.Register(req.Login, req.Password, req.Name, req.Phone, req.Country)
	if errors.Is(err, users.ErrUserExists) {
		return status(409)
	}
	if err != nil {
		return status(400)
	}
	return status(201)
}

func (p *ConnectionProcessor) handleGetUser(login string, ip netip.Addr) response {
	u, err := p.engine.GetUser(login, ip)
	if err != nil {
		return status(403)
	}
	encoded, err := json.Marshal(u)
	if err != nil {
		return status(403)
	}
	return jsonResponse(200, encoded)
}

func (p *ConnectionProcessor) handleEditUser(login string, body []byte) response {
	var req editUserRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return status(400)
	}

	err := p.engine.EditUser(login, auth.EditFields{
		Name:     req.Name,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		return status(403)
	}
	return status(202)
}

func (p *ConnectionProcessor) handleBanUser(login string) response {
	changed, err := p.engine.BanUser(login)
	if errors.Is(err, users.ErrUserNotFound) {
		return status(404)
	}
	if err != nil {
		return status(403)
	}
	if !changed {
		return status(409)
	}
	return status(201)
}

func (p *ConnectionProcessor) handleUnbanUser(login string) response {
	changed, err := p.engine.UnbanUser(login)
	if errors.Is(err, users.ErrUserNotFound) {
		return status(404)
	}
	if err != nil {
		return status(403)
	}
	if !changed {
		return status(409)
	}
	return status(204)
}

// parseSubnet validates the addr/mask path captures into an IPv4 prefix
func parseSubnet(addr string, mask uint8) (netip.Prefix, bool) {
	ip, err := netip.ParseAddr(addr)
	if err != nil || !ip.Is4() || mask > 32 {
		return netip.Prefix{}, false
	}
	return netip.PrefixFrom(ip, int(mask)), true
}

func (p *ConnectionProcessor) handleBanSubnet(addr string, mask uint8) response {
	subnet, ok := parseSubnet(addr, mask)
	if !ok {
		return status(400)
	}
	if !p.bans.Insert(subnet) {
		return status(409)
	}
	return status(201)
}

func (p *ConnectionProcessor) handleUnbanSubnet(addr string, mask uint8) response {
	subnet, ok := parseSubnet(addr, mask)
	if !ok {
		return status(400)
	}
	if !p.bans.Remove(subnet) {
		return status(404)
	}
	return status(204)
}
