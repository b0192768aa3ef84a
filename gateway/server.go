// Package gateway implements the HTTPS gateway bridge (spec §4.4): it
// terminates HTTP requests, extracts an authentication token, synthesizes
// a messaging block carrying a JSON envelope, forwards it to a configured
// target peer via the forwarding backend, and correlates the asynchronous
// reply back into an HTTP response.
package gateway

import (
	"context"
	"io/ioutil"
	"net/http"
	"strconv"
	"sync"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/ground-x/blmessaging/auth"
	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/common/errs"
	"github.com/ground-x/blmessaging/forwarding"
	"github.com/ground-x/blmessaging/log"
	"github.com/ground-x/blmessaging/transport"
	"github.com/ground-x/blmessaging/wire"
)

// Server is the gateway bridge: an HTTP front door over a forwarding.Backend.
type Server struct {
	cfg        Config
	pool       *block.Pool
	dispatcher *forwarding.Backend
	cache      *auth.Cache
	authorize  auth.Authorizer
	logger     *log.Logger

	mu      sync.Mutex
	pending map[string]chan Envelope
}

// NewServer builds a gateway bridge. cache/authorize may be nil only
// when cfg.NoServerAuthenticationRequired is true.
func NewServer(cfg Config, pool *block.Pool, dispatcher *forwarding.Backend, cache *auth.Cache, authorize auth.Authorizer) *Server {
	return &Server{
		cfg:        cfg,
		pool:       pool,
		dispatcher: dispatcher,
		cache:      cache,
		authorize:  authorize,
		logger:     log.New("gateway"),
		pending:    make(map[string]chan Envelope),
	}
}

// SetDispatcher installs the forwarding backend a server built before
// that backend existed will use to dispatch requests. This breaks the
// constructor cycle between forwarding.New (which needs the server as
// its reply transport.FrameHandler) and NewServer (which otherwise
// needs the backend up front): the bl-gateway binary builds the server
// first, dials the broker with the server as handler, then wires the
// resulting backend back in.
func (s *Server) SetDispatcher(dispatcher *forwarding.Backend) {
	s.dispatcher = dispatcher
}

// HandleFrame implements transport.FrameHandler: it is installed on every
// forwarding connection so replies correlate back to the waiting request
// by the envelope's conversation id (spec §4.4 step 5).
func (s *Server) HandleFrame(c *transport.Connection, f wire.Frame, payload *block.Block) error {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		s.logger.Warn("gateway: failed to decode reply envelope", "err", err)
		return nil
	}
	s.mu.Lock()
	ch, ok := s.pending[env.ConversationID]
	if ok {
		delete(s.pending, env.ConversationID)
	}
	s.mu.Unlock()
	if !ok {
		s.logger.Warn("gateway: reply for unknown or expired conversation", "conversationId", env.ConversationID)
		return nil
	}
	ch <- env
	return nil
}

func (s *Server) register(conversationID string) chan Envelope {
	ch := make(chan Envelope, 1)
	s.mu.Lock()
	s.pending[conversationID] = ch
	s.mu.Unlock()
	return ch
}

func (s *Server) unregister(conversationID string) {
	s.mu.Lock()
	delete(s.pending, conversationID)
	s.mu.Unlock()
}

// Handler builds the net/http handler: a named health-check route plus a
// catch-all proxy path, CORS-wrapped, matching the teacher's own
// httprouter+rs/cors combination.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/healthz", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})
	router.NotFound = http.HandlerFunc(s.serveProxy)
	return cors.Default().Handler(router)
}

// FastHTTPHandler adapts Handler() for a *fasthttp.Server, following
// networks/rpc/http_test.go's fasthttpadaptor usage.
func (s *Server) FastHTTPHandler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(s.Handler())
}

// ListenAndServeTLS starts the fasthttp listener on cfg.InboundPort using
// the configured PEM identity.
func (s *Server) ListenAndServeTLS() error {
	srv := &fasthttp.Server{
		Handler:            s.FastHTTPHandler(),
		MaxRequestBodySize: int(s.cfg.maxRequestBytes()),
	}
	addr := ":" + strconv.Itoa(s.cfg.InboundPort)
	return srv.ListenAndServeTLS(addr, s.cfg.CertificateFile, s.cfg.PrivateKeyFile)
}

func (s *Server) serveProxy(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.cfg.maxRequestBytes() {
		http.Error(w, "request entity too large", http.StatusRequestEntityTooLarge)
		return
	}
	body, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.maxRequestBytes()))
	if err != nil {
		http.Error(w, "request entity too large", http.StatusRequestEntityTooLarge)
		return
	}

	token, hasToken := s.extractToken(r)
	if !hasToken && !s.cfg.NoServerAuthenticationRequired {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if hasToken && !s.cfg.NoServerAuthenticationRequired {
		if status, ok := s.authorizeToken(token); !ok {
			if s.cfg.LogUnauthorizedMessages {
				s.logger.Info("gateway: request failed authorization", "uri", r.URL.String(), "status", status)
			}
			http.Error(w, http.StatusText(status), status)
			return
		}
	}

	conversationID := common.NewChunkID().String()
	env := Envelope{
		ConversationID: conversationID,
		Method:         r.Method,
		URI:            r.URL.String(),
		Headers:        map[string][]string(r.Header),
		Body:           body,
	}

	blk := s.pool.Get()
	if err := EncodeInto(env, blk); err != nil {
		http.Error(w, "request too large to encode", http.StatusRequestEntityTooLarge)
		return
	}

	replyCh := s.register(conversationID)
	defer s.unregister(conversationID)

	frame := wire.Frame{
		ControlCode: wire.Put,
		PeerID:      s.cfg.TargetPeerID,
		ChunkID:     common.NewChunkID(),
		ChunkSize:   uint32(blk.Size()),
		Data:        wire.DataUnion{BlockType: wire.Normal},
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if s.cfg.RequestTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	task := s.dispatcher.CreateDispatchTask(frame, blk)
	if err := task.Wait(ctx); err != nil {
		writeDispatchError(w, err)
		return
	}

	select {
	case env := <-replyCh:
		writeEnvelopeReply(w, env)
	case <-ctx.Done():
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	}
}

func writeEnvelopeReply(w http.ResponseWriter, env Envelope) {
	for k, vs := range env.Headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	status := env.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(env.Body)
}

// writeDispatchError maps an *errs.Error kind to an HTTP status per
// spec §4.4's error mapping table.
func writeDispatchError(w http.ResponseWriter, err error) {
	kind := errs.ServerFailure
	if e, ok := err.(*errs.Error); ok {
		kind = e.Kind
	}
	switch kind {
	case errs.TargetPeerNotFound:
		http.Error(w, "target peer not found", http.StatusServiceUnavailable)
	case errs.AuthorizationFailure:
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errs.Timeout:
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	default:
		http.Error(w, "bad request", http.StatusBadRequest)
	}
}

// extractToken scans the configured cookie names, falling back to the
// configured default token when none match, per spec §4.4 step 2.
func (s *Server) extractToken(r *http.Request) ([]byte, bool) {
	for _, name := range s.cfg.TokenCookieNames {
		if ck, err := r.Cookie(name); err == nil && ck.Value != "" {
			return []byte(ck.Value), true
		}
	}
	if s.cfg.TokenDataDefault != "" {
		return []byte(s.cfg.TokenDataDefault), true
	}
	return nil, false
}

// authorizeToken consults the cache, falling through to the upstream
// authorizer on a miss, and reports the status to use on failure: 401
// for an authorization failure, 502 when the upstream service could not
// be reached at all.
func (s *Server) authorizeToken(token []byte) (status int, ok bool) {
	if s.cache == nil {
		return http.StatusUnauthorized, false
	}
	if p := s.cache.TryGetAuthorizedPrincipal(token); p != nil {
		return 0, s.checkExpectedSecurityID(p)
	}
	if s.authorize == nil {
		return http.StatusBadGateway, false
	}
	p, err := s.authorize(token)
	if err != nil {
		if isUpstreamUnreachable(err) {
			return http.StatusBadGateway, false
		}
		return http.StatusUnauthorized, false
	}
	if _, err := s.cache.Update(token, nil, &p); err != nil {
		return http.StatusUnauthorized, false
	}
	return 0, s.checkExpectedSecurityID(&p)
}

func (s *Server) checkExpectedSecurityID(p *auth.Principal) bool {
	if s.cfg.ExpectedSecurityID == "" {
		return true
	}
	return p.Subject == s.cfg.ExpectedSecurityID
}

func isUpstreamUnreachable(err error) bool {
	e, ok := err.(*errs.Error)
	if !ok {
		return false
	}
	return e.Kind == errs.ConnectivityFailure || e.Kind == errs.ServerFailure
}
