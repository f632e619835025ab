package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gabapcia/chainscan/internal/pkg/types"
)

// rpcOperations is the set of node operations /rpc forwards. Administrative
// operations are not exposed.
var rpcOperations = types.NewSet(
	"ping",
	"getSyncStatus",
	"getServerInfo",
	"getMetrics",
	"getConnections",
	"getSystemInfo",
	"getBlockTemplate",
	"getBlock",
	"getTransaction",
	"getInfo",
	"getCurrentNetwork",
	"getPeerAddresses",
	"getSink",
	"getMempoolEntry",
	"getMempoolEntries",
	"getConnectedPeerInfo",
	"submitTransaction",
	"getSubnetwork",
	"getVirtualChainFromBlock",
	"getBlocks",
	"getBlockCount",
	"getBlockDagInfo",
	"getHeaders",
	"getUtxosByAddresses",
	"getBalanceByAddress",
	"getBalancesByAddresses",
	"getSinkBlueScore",
	"estimateNetworkHashesPerSecond",
	"getMempoolEntriesByAddresses",
	"getCoinSupply",
	"getDaaScoreTimestampEstimate",
	"getFeeEstimate",
	"getCurrentBlockColor",
)

type rpcRequest struct {
	Operation string          `json:"operation"`
	Params    json.RawMessage `json:"params"`
}

// maxRPCBody bounds the /rpc request body.
const maxRPCBody = 1 << 20

func (s *Server) rpc(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req rpcRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRPCBody)).Decode(&req); err != nil {
		WriteError(w, r, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	if req.Operation == "" {
		WriteError(w, r, fmt.Errorf("%w: operation is required", ErrBadRequest))
		return
	}
	if !rpcOperations.Has(req.Operation) {
		WriteError(w, r, fmt.Errorf("%w: %q", ErrUnknownOperation, req.Operation))
		return
	}

	var params any
	if len(req.Params) > 0 && string(req.Params) != "null" {
		params = req.Params
	}

	h, err := s.pool.Get(ctx)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	defer h.Release()

	payload, err := h.Value().Call(ctx, req.Operation, params)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Status: statusOK, Operation: req.Operation, Data: payload})
}
