package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"assetchain/core"
	"assetchain/native/access"
	"assetchain/native/assets"
	"assetchain/native/auction"
	nativecommon "assetchain/native/common"
	"assetchain/native/escrow"
	"assetchain/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20

	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeForbidden      = -32003
	codeNotFound       = -32004
	codeConflict       = -32005
	codeServerError    = -32000
)

// Server exposes the node over a JSON-RPC 2.0 HTTP endpoint. Mutating methods
// require a bearer token when one is configured via ASSETCHAIN_RPC_TOKEN.
type Server struct {
	node      *core.Node
	authToken string
	limiter   *sourceLimiter
	metrics   *observability.ModuleMetricsRegistry
	log       *slog.Logger
}

// NewServer creates an RPC server bound to the node.
func NewServer(node *core.Node, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		node:      node,
		authToken: strings.TrimSpace(os.Getenv("ASSETCHAIN_RPC_TOKEN")),
		limiter:   newSourceLimiter(600, 30),
		metrics:   observability.ModuleMetrics(),
		log:       logger,
	}
}

// Router assembles the HTTP surface: health, metrics and the RPC endpoint.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	return r
}

// Start blocks serving the RPC endpoint on the supplied address.
func (s *Server) Start(addr string) error {
	s.log.Info("starting JSON-RPC server", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// handle is the main request handler that routes to method handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	if !s.limiter.Allow(clientSource(r)) {
		s.metrics.ObserveThrottle("rpc", "rate_limit")
		writeError(w, http.StatusTooManyRequests, nil, codeServerError, "rate limit exceeded", nil)
		return
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "failed to read request body", err.Error())
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if strings.TrimSpace(req.Method) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	if mutatingMethods[req.Method] {
		if rpcErr := s.checkAuth(r); rpcErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
			return
		}
	}

	start := time.Now()
	status := s.dispatch(w, &req)
	s.metrics.Observe(moduleOf(req.Method), req.Method, status, time.Since(start))
}

var mutatingMethods = map[string]bool{
	"access_restrict":      true,
	"access_unrestrict":    true,
	"assets_mint":          true,
	"assets_whitelistMint": true,
	"assets_transfer":      true,
	"assets_approve":       true,
	"auction_list":         true,
	"auction_cancel":       true,
	"auction_bid":          true,
	"auction_accept":       true,
	"auction_buy":          true,
	"escrow_pay":           true,
	"escrow_check":         true,
}

func moduleOf(method string) string {
	if idx := strings.IndexByte(method, '_'); idx > 0 {
		return method[:idx]
	}
	return method
}

func (s *Server) dispatch(w http.ResponseWriter, req *RPCRequest) int {
	switch req.Method {
	case "access_restrict":
		return s.handleAccessRestrict(w, req)
	case "access_unrestrict":
		return s.handleAccessUnrestrict(w, req)
	case "access_isRestricted":
		return s.handleAccessIsRestricted(w, req)
	case "assets_mint":
		return s.handleAssetsMint(w, req)
	case "assets_whitelistMint":
		return s.handleAssetsWhitelistMint(w, req)
	case "assets_transfer":
		return s.handleAssetsTransfer(w, req)
	case "assets_approve":
		return s.handleAssetsApprove(w, req)
	case "assets_get":
		return s.handleAssetsGet(w, req)
	case "auction_list":
		return s.handleAuctionList(w, req)
	case "auction_cancel":
		return s.handleAuctionCancel(w, req)
	case "auction_bid":
		return s.handleAuctionBid(w, req)
	case "auction_accept":
		return s.handleAuctionAccept(w, req)
	case "auction_buy":
		return s.handleAuctionBuy(w, req)
	case "auction_listings":
		return s.handleAuctionListings(w, req)
	case "auction_getListing":
		return s.handleAuctionGetListing(w, req)
	case "auction_topBid":
		return s.handleAuctionTopBid(w, req)
	case "auction_listedCount":
		return s.handleAuctionListedCount(w, req)
	case "escrow_pay":
		return s.handleEscrowPay(w, req)
	case "escrow_check":
		return s.handleEscrowCheck(w, req)
	case "escrow_getTrade":
		return s.handleEscrowGetTrade(w, req)
	case "bank_getBalance":
		return s.handleBankGetBalance(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
		return http.StatusNotFound
	}
}

func (s *Server) checkAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

// writeEngineError maps module sentinel errors onto RPC error codes and HTTP
// statuses, and reports the status written.
func (s *Server) writeEngineError(w http.ResponseWriter, id interface{}, err error) int {
	status := http.StatusInternalServerError
	code := codeServerError
	switch {
	case errors.Is(err, auction.ErrNotListed),
		errors.Is(err, escrow.ErrNoSuchTrade),
		errors.Is(err, assets.ErrAssetNotFound):
		status, code = http.StatusNotFound, codeNotFound
	case errors.Is(err, nativecommon.ErrRestricted),
		errors.Is(err, access.ErrNotAdmin),
		errors.Is(err, auction.ErrNotOwner),
		errors.Is(err, escrow.ErrNotBuyer),
		errors.Is(err, escrow.ErrNotParty),
		errors.Is(err, assets.ErrNotAuthorized):
		status, code = http.StatusForbidden, codeForbidden
	case errors.Is(err, auction.ErrAlreadyListed),
		errors.Is(err, auction.ErrSelfTrade),
		errors.Is(err, auction.ErrBidTooLow),
		errors.Is(err, auction.ErrInsufficientPayment),
		errors.Is(err, auction.ErrNotApproved),
		errors.Is(err, escrow.ErrTradeExpired),
		errors.Is(err, escrow.ErrTradeNotPaid),
		errors.Is(err, escrow.ErrWrongPayment),
		errors.Is(err, assets.ErrAssetLocked),
		errors.Is(err, assets.ErrAlreadyClaimed),
		errors.Is(err, assets.ErrInvalidProof),
		errors.Is(err, assets.ErrInsufficientPayment),
		errors.Is(err, assets.ErrInsufficientBalance):
		status, code = http.StatusConflict, codeConflict
	}
	writeError(w, status, id, code, err.Error(), nil)
	return status
}
