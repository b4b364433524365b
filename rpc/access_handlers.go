package rpc

import "net/http"

type accessActorParams struct {
	Caller  string `json:"caller"`
	Address string `json:"address"`
}

type accessQueryParams struct {
	Address string `json:"address"`
}

func (s *Server) handleAccessRestrict(w http.ResponseWriter, req *RPCRequest) int {
	var params accessActorParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "address: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	if err := s.node.AccessRestrict(caller, addr); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, map[string]bool{"restricted": true})
	return http.StatusOK
}

func (s *Server) handleAccessUnrestrict(w http.ResponseWriter, req *RPCRequest) int {
	var params accessActorParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "address: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	if err := s.node.AccessUnrestrict(caller, addr); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, map[string]bool{"restricted": false})
	return http.StatusOK
}

func (s *Server) handleAccessIsRestricted(w http.ResponseWriter, req *RPCRequest) int {
	var params accessQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "address: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	writeResult(w, req.ID, map[string]bool{"restricted": s.node.AccessIsRestricted(addr)})
	return http.StatusOK
}
