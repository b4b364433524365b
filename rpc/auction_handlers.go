package rpc

import "net/http"

type auctionListParams struct {
	Caller   string `json:"caller"`
	AssetID  uint64 `json:"assetId"`
	AskPrice string `json:"askPrice"`
}

type auctionActorParams struct {
	Caller  string `json:"caller"`
	AssetID uint64 `json:"assetId"`
}

type auctionBidParams struct {
	Caller  string `json:"caller"`
	AssetID uint64 `json:"assetId"`
	Amount  string `json:"amount"`
}

type auctionBuyParams struct {
	Caller  string `json:"caller"`
	AssetID uint64 `json:"assetId"`
	Value   string `json:"value"`
}

type auctionQueryParams struct {
	AssetID uint64 `json:"assetId"`
}

func (s *Server) handleAuctionList(w http.ResponseWriter, req *RPCRequest) int {
	var params auctionListParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	askPrice, err := parseAmount(params.AskPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "askPrice: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	listing, err := s.node.AuctionList(caller, params.AssetID, askPrice)
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, newListingJSON(listing))
	return http.StatusOK
}

func (s *Server) handleAuctionCancel(w http.ResponseWriter, req *RPCRequest) int {
	var params auctionActorParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	if err := s.node.AuctionCancel(caller, params.AssetID); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, map[string]bool{"cancelled": true})
	return http.StatusOK
}

func (s *Server) handleAuctionBid(w http.ResponseWriter, req *RPCRequest) int {
	var params auctionBidParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "amount: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	listing, err := s.node.AuctionBid(caller, params.AssetID, amount)
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, newListingJSON(listing))
	return http.StatusOK
}

func (s *Server) handleAuctionAccept(w http.ResponseWriter, req *RPCRequest) int {
	var params auctionActorParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller: "+err.Error(), nil)
		return http.StatusBadRequest
	}
	trade, err := s.node.AuctionAccept(caller, params.AssetID)
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, newTradeJSON(trade))
	return http.StatusOK
}

func (s *Server) handleAuctionBuy(w http.ResponseWriter, req *RPCRequest) int {
	var params auctionBuyParams
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
	if err := s.node.AuctionBuy(caller, params.AssetID, value); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, map[string]bool{"purchased": true})
	return http.StatusOK
}

func (s *Server) handleAuctionListings(w http.ResponseWriter, req *RPCRequest) int {
	ids, err := s.node.AuctionListings()
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, map[string][]uint64{"assetIds": ids})
	return http.StatusOK
}

func (s *Server) handleAuctionGetListing(w http.ResponseWriter, req *RPCRequest) int {
	var params auctionQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	listing, ok := s.node.AuctionListing(params.AssetID)
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "listing not found", nil)
		return http.StatusNotFound
	}
	writeResult(w, req.ID, newListingJSON(listing))
	return http.StatusOK
}

func (s *Server) handleAuctionTopBid(w http.ResponseWriter, req *RPCRequest) int {
	var params auctionQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return http.StatusBadRequest
	}
	bid, ok := s.node.AuctionTopBid(params.AssetID)
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "listing not found", nil)
		return http.StatusNotFound
	}
	writeResult(w, req.ID, bidJSON{
		Time:   bid.Time,
		Amount: bid.Amount.String(),
		Bidder: formatAddress(bid.Bidder),
	})
	return http.StatusOK
}

func (s *Server) handleAuctionListedCount(w http.ResponseWriter, req *RPCRequest) int {
	count, err := s.node.AuctionListedCount()
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, map[string]int{"count": count})
	return http.StatusOK
}
