package rpc

import "net/http"

type escrowPayParams struct {
	Caller  string `json:"caller"`
	AssetID uint64 `json:"assetId"`
	Value   string `json:"value"`
}

type escrowActorParams struct {
	Caller  string `json:"caller"`
	AssetID uint64 `json:"assetId"`
}

type escrowQueryParams struct {
	AssetID uint64 `json:"assetId"`
}

type bankBalanceParams struct {
	Address string `json:"address"`
}

type bankBalanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

func (s *Server) handleEscrowPay(w http.ResponseWriter, req *RPCRequest) int {
	var params escrowPayParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "value: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	if err := s.node.EscrowPay(caller, params.AssetID, value); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, map[string]bool{"paid": true})
	return http.StatusOK
}

func (s *Server) handleEscrowCheck(w http.ResponseWriter, req *RPCRequest) int {
	var params escrowActorParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	if err := s.node.EscrowCheck(caller, params.AssetID); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, map[string]bool{"finalized": true})
	return http.StatusOK
}

func (s *Server) handleEscrowGetTrade(w http.ResponseWriter, req *RPCRequest) int {
	var params escrowQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	trade, ok := s.node.EscrowTrade(params.AssetID)
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "trade not found", nil)
		return http.StatusNotFound
	}
	writeResult(w, req.ID, newTradeJSON(trade))
	return http.StatusOK
}

func (s *Server) handleBankGetBalance(w http.ResponseWriter, req *RPCRequest) int {
	var params bankBalanceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "address: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	account, err := s.node.GetAccount(addr)
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, bankBalanceResult{
		Address: formatAddress(addr),
		Balance: account.Balance.String(),
		Nonce:   account.Nonce,
	})
	return http.StatusOK
}
