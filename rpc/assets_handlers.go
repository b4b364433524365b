package rpc

import "net/http"

type assetsMintParams struct {
	Caller  string `json:"caller"`
	To      string `json:"to"`
	Content string `json:"content"`
	Value   string `json:"value"`
}

type assetsWhitelistMintParams struct {
	Caller  string   `json:"caller"`
	To      string   `json:"to"`
	Proof   []string `json:"proof"`
	Content string   `json:"content"`
	Value   string   `json:"value"`
}

type assetsTransferParams struct {
	Caller string `json:"caller"`
	From   string `json:"from"`
	To     string `json:"to"`
	ID     uint64 `json:"id"`
}

type assetsApproveParams struct {
	Caller  string `json:"caller"`
	Spender string `json:"spender"`
	ID      uint64 `json:"id"`
}

type assetsQueryParams struct {
	ID uint64 `json:"id"`
}

type assetsMintResult struct {
	ID uint64 `json:"id"`
}

func (s *Server) handleAssetsMint(w http.ResponseWriter, req *RPCRequest) int {
	var params assetsMintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	to, err := parseAddress(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "to: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "value: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	id, err := s.node.AssetsMint(caller, to, params.Content, value)
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, assetsMintResult{ID: id})
	return http.StatusOK
}

func (s *Server) handleAssetsWhitelistMint(w http.ResponseWriter, req *RPCRequest) int {
	var params assetsWhitelistMintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	to, err := parseAddress(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "to: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	proof, err := parseProof(params.Proof)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return http.StatusBadRequest
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "value: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	id, err := s.node.AssetsWhitelistMint(caller, to, proof, params.Content, value)
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, assetsMintResult{ID: id})
	return http.StatusOK
}

func (s *Server) handleAssetsTransfer(w http.ResponseWriter, req *RPCRequest) int {
	var params assetsTransferParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	from, err := parseAddress(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "from: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	to, err := parseAddress(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "to: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	if err := s.node.AssetsTransfer(caller, from, to, params.ID); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, map[string]bool{"transferred": true})
	return http.StatusOK
}

func (s *Server) handleAssetsApprove(w http.ResponseWriter, req *RPCRequest) int {
	var params assetsApproveParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	spender, err := parseAddress(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "spender: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	if err := s.node.AssetsApprove(caller, spender, params.ID); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, map[string]bool{"approved": true})
	return http.StatusOK
}

func (s *Server) handleAssetsGet(w http.ResponseWriter, req *RPCRequest) int {
	var params assetsQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	asset, ok := s.node.AssetGet(params.ID)
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "asset not found", nil)
		return http.StatusNotFound
	}
	uri, _ := s.node.AssetTokenURI(params.ID)
	writeResult(w, req.ID, newAssetJSON(asset, uri))
	return http.StatusOK
}
