// Package neovault provides HTTP handlers for the privacy neovault service.
package neovaultmarble

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/R3E-Network/service_layer/internal/httputil"
)

// =============================================================================
// HTTP Handlers
// =============================================================================

// handleInfo returns service information.
func (s *Service) handleInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Get default token config for info display
	cfg := s.GetTokenConfig(DefaultToken)

	// Get pool info from neoaccounts service
	client, err := s.getNeoAccountsClient()
	if err != nil {
		s.Logger().WithContext(ctx).WithError(err).Warn("failed to create neoaccounts client")
		httputil.ServiceUnavailable(w, "neoaccounts client unavailable")
		return
	}
	poolInfo, err := client.GetPoolInfo(ctx)
	if err != nil {
		httputil.InternalError(w, "failed to get pool info from neoaccounts")
		return
	}

	pendingReqs, err := s.repo.ListByStatus(ctx, string(StatusPending))
	if err != nil {
		s.Logger().WithContext(ctx).WithError(err).WithField("status", string(StatusPending)).Warn("failed to list requests")
	}
	depositedReqs, err := s.repo.ListByStatus(ctx, string(StatusDeposited))
	if err != nil {
		s.Logger().WithContext(ctx).WithError(err).WithField("status", string(StatusDeposited)).Warn("failed to list requests")
	}
	mixingReqs, err := s.repo.ListByStatus(ctx, string(StatusMixing))
	if err != nil {
		s.Logger().WithContext(ctx).WithError(err).WithField("status", string(StatusMixing)).Warn("failed to list requests")
	}

	pendingRequests := len(pendingReqs) + len(depositedReqs)
	mixingRequests := len(mixingReqs)

	// Calculate available capacity based on compliance limits
	// Use token stats for the default token type
	totalBalance := int64(0)
	if tokenStats, ok := poolInfo.TokenStats[DefaultToken]; ok {
		totalBalance = tokenStats.TotalBalance
	}
	availableCapacity := cfg.MaxPoolBalance - totalBalance
	if availableCapacity < 0 {
		availableCapacity = 0
	}

	httputil.WriteJSON(w, http.StatusOK, InfoResponse{
		Status:            "active",
		Version:           Version,
		PoolAccounts:      poolInfo.TotalAccounts,
		PoolBalance:       totalBalance,
		TokenStats:        poolInfo.TokenStats,
		AvailableCapacity: availableCapacity,
		PendingRequests:   pendingRequests,
		MixingRequests:    mixingRequests,
		ServiceFeeRate:    cfg.ServiceFeeRate,
		SupportedTokens:   s.GetSupportedTokens(),
		ComplianceLimits: ComplianceLimits{
			MaxRequestAmount: cfg.MaxRequestAmount,
			MaxPoolBalance:   cfg.MaxPoolBalance,
		},
		MinAmount: cfg.MinTxAmount * 10,
		MaxAmount: cfg.MaxRequestAmount,
	})
}

// handleCreateRequest creates a new mix request.
func (s *Service) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.RequireUserID(w, r)
	if !ok {
		return
	}

	var input CreateRequestInput
	if !httputil.DecodeJSON(w, r, &input) {
		return
	}

	// Determine token type (default to GAS for backward compatibility)
	tokenType := input.TokenType
	if tokenType == "" {
		tokenType = DefaultToken
	}

	// Get config for requested token
	cfg := s.GetTokenConfig(tokenType)
	if cfg == nil {
		httputil.BadRequest(w, fmt.Sprintf("unsupported token type: %s", tokenType))
		return
	}

	// Normalize input: support both new and legacy formats
	targets := input.Targets
	if len(targets) == 0 && input.TotalAmount > 0 {
		// Legacy format: use TotalAmount split across implicit targets
		targets = []TargetAddress{{Address: input.UserAddress, Amount: input.TotalAmount}}
	}

	// Calculate total amount from targets
	totalAmount := int64(0)
	for _, t := range targets {
		totalAmount += t.Amount
	}
	if input.TotalAmount > 0 && input.TotalAmount > totalAmount {
		totalAmount = input.TotalAmount
	}

	// Validate compliance limits
	if totalAmount > cfg.MaxRequestAmount {
		httputil.BadRequest(w, fmt.Sprintf("amount exceeds limit: max %d", cfg.MaxRequestAmount))
		return
	}
	if totalAmount < cfg.MinTxAmount*10 {
		httputil.BadRequest(w, "amount too small")
		return
	}
	if len(targets) == 0 {
		httputil.BadRequest(w, "at least one target address required")
		return
	}

	// Normalize mixing duration
	mixingDuration := time.Duration(input.MixOption) * time.Millisecond
	if input.MixingMinutes > 0 {
		mixingDuration = time.Duration(input.MixingMinutes) * time.Minute
	}
	if mixingDuration < 5*time.Minute {
		mixingDuration = 30 * time.Minute
	}
	if mixingDuration > 7*24*time.Hour {
		mixingDuration = 7 * 24 * time.Hour
	}

	// Normalize splits
	initialSplits := input.InitialSplits
	if initialSplits < 2 {
		initialSplits = 3
	}
	if initialSplits > 10 {
		initialSplits = 10
	}

	// Set timestamp if not provided
	if input.Timestamp == 0 {
		input.Timestamp = time.Now().Unix()
	}
	if input.Version == 0 {
		input.Version = 1
	}

	// Calculate fees using token-specific rate
	serviceFee := int64(float64(totalAmount) * cfg.ServiceFeeRate)
	netAmount := totalAmount - serviceFee

	// Create deposit account (shared pool)
	depositAccount, err := s.createPoolAccount(r.Context())
	if err != nil {
		httputil.InternalError(w, "failed to create deposit address")
		return
	}

	// Calculate deadline (mixing duration + grace period)
	deadline := time.Now().Add(mixingDuration).Add(DisputeGracePeriod).Unix()

	// Prepare canonical request for hashing
	canonicalInput := CreateRequestInput{
		Version:     input.Version,
		UserAddress: input.UserAddress,
		InputTxs:    input.InputTxs,
		Targets:     targets,
		MixOption:   mixingDuration.Milliseconds(),
		Timestamp:   input.Timestamp,
		TokenType:   tokenType,
	}

	// Generate requestHash
	requestBytes, err := json.Marshal(canonicalInput)
	if err != nil {
		httputil.InternalError(w, "failed to serialize request")
		return
	}
	hashBytes := sha256.Sum256(requestBytes)
	requestHash := hex.EncodeToString(hashBytes[:])

	// Generate TEE signature over requestHash
	teeSignature := s.signRequestHash(requestHash)

	request := &MixRequest{
		ID:              uuid.New().String(),
		UserID:          userID,
		UserAddress:     input.UserAddress,
		TokenType:       tokenType,
		Status:          StatusPending,
		TotalAmount:     totalAmount,
		ServiceFee:      serviceFee,
		NetAmount:       netAmount,
		TargetAddresses: targets,
		InitialSplits:   initialSplits,
		MixingDuration:  mixingDuration,
		DepositAddress:  depositAccount.Address,
		PoolAccounts:    []string{depositAccount.ID},
		RequestHash:     requestHash,
		TEESignature:    teeSignature,
		Deadline:        deadline,
		CreatedAt:       time.Now(),
	}

	if err := s.repo.Create(r.Context(), RequestToRecord(request)); err != nil {
		httputil.InternalError(w, "failed to persist request")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, CreateRequestResponse{
		Request:        &canonicalInput,
		RequestID:      request.ID,
		RequestHash:    requestHash,
		TEESignature:   teeSignature,
		DepositAddress: request.DepositAddress,
		TotalAmount:    totalAmount,
		ServiceFee:     serviceFee,
		NetAmount:      netAmount,
		Deadline:       deadline,
		ExpiresAt:      time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
}

// handleGetStatus returns a lightweight status view of a mix request.
func (s *Service) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.RequireUserID(w, r)
	if !ok {
		return
	}

	requestID := mux.Vars(r)["id"]

	rec, err := s.repo.GetByID(r.Context(), requestID)
	if err != nil {
		httputil.NotFound(w, "request not found")
		return
	}
	request := RequestFromRecord(rec)

	// Verify ownership
	if request.UserID != userID {
		httputil.WriteError(w, http.StatusForbidden, "not authorized to view this request")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, RequestStatusResponse{
		RequestID:   request.ID,
		Status:      request.Status,
		RequestHash: request.RequestHash,
		Deadline:    request.Deadline,
		CreatedAt:   request.CreatedAt,
		DeliveredAt: request.DeliveredAt,
	})
}

// handleGetRequest returns the full details of a mix request.
func (s *Service) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.RequireUserID(w, r)
	if !ok {
		return
	}

	requestID := mux.Vars(r)["id"]

	rec, err := s.repo.GetByID(r.Context(), requestID)
	if err != nil {
		httputil.NotFound(w, "request not found")
		return
	}
	request := RequestFromRecord(rec)

	// Verify ownership
	if request.UserID != userID {
		httputil.WriteError(w, http.StatusForbidden, "not authorized to view this request")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, request)
}

// handleConfirmDeposit confirms a deposit for a mix request.
func (s *Service) handleConfirmDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.RequireUserID(w, r)
	if !ok {
		return
	}

	requestID := mux.Vars(r)["id"]

	var input ConfirmDepositInput
	if !httputil.DecodeJSON(w, r, &input) {
		return
	}

	rec, err := s.repo.GetByID(r.Context(), requestID)
	if err != nil {
		httputil.NotFound(w, "request not found")
		return
	}
	request := RequestFromRecord(rec)

	// Verify ownership
	if request.UserID != userID {
		httputil.WriteError(w, http.StatusForbidden, "not authorized to modify this request")
		return
	}

	if request.Status != StatusPending {
		httputil.BadRequest(w, "request already processed")
		return
	}

	if input.TxHash == "" {
		httputil.BadRequest(w, "tx_hash required")
		return
	}

	// SECURITY: Verify deposit transaction via RPC before accepting
	if err := s.verifyDeposit(r.Context(), request, input.TxHash); err != nil {
		s.Logger().WithContext(r.Context()).WithError(err).WithField("tx_hash", input.TxHash).Warn("deposit verification failed")
		httputil.BadRequest(w, fmt.Sprintf("deposit verification failed: %v", err))
		return
	}

	// Deposit verified - update request status
	request.DepositTxHash = input.TxHash
	request.Status = StatusDeposited
	request.DepositedAt = time.Now()

	if err := s.repo.Update(r.Context(), RequestToRecord(request)); err != nil {
		httputil.InternalError(w, "failed to update request")
		return
	}

	// Start mixing process asynchronously after deposit confirmation
	go s.startMixing(context.Background(), request)

	httputil.WriteJSON(w, http.StatusOK, StatusMessageResponse{
		Status:  "deposited",
		Message: "Mixing will begin shortly",
	})
}

// verifyDeposit verifies a deposit transaction via RPC.
// Checks: transaction exists, succeeded, has Transfer event to deposit address with correct amount and token.
func (s *Service) verifyDeposit(ctx context.Context, request *MixRequest, txHash string) error {
	if s.chainClient == nil {
		// In development/test mode without chain client, skip verification
		s.Logger().WithContext(ctx).Warn("chain client not configured, skipping deposit verification")
		return nil
	}

	// Get token config for script hash
	cfg := s.GetTokenConfig(request.TokenType)
	if cfg == nil {
		return fmt.Errorf("unknown token type: %s", request.TokenType)
	}

	// Fetch application log for the transaction
	appLog, err := s.chainClient.GetApplicationLog(ctx, txHash)
	if err != nil {
		return fmt.Errorf("transaction not found or not yet confirmed: %w", err)
	}

	// Check transaction succeeded
	if len(appLog.Executions) == 0 {
		return fmt.Errorf("transaction has no executions")
	}
	if appLog.Executions[0].VMState != "HALT" {
		return fmt.Errorf("transaction failed: %s", appLog.Executions[0].Exception)
	}

	// Look for Transfer event from the correct token contract to the deposit address
	expectedScriptHash := cfg.ScriptHash
	expectedRecipient := request.DepositAddress
	expectedAmount := request.TotalAmount

	var foundTransfer bool
	var transferredAmount int64

	for _, exec := range appLog.Executions {
		for _, notif := range exec.Notifications {
			// Check if this is a Transfer event from the expected token contract
			if notif.EventName != "Transfer" {
				continue
			}
			// Normalize script hash comparison (with or without 0x prefix)
			contractHash := notif.Contract
			if !hashesEqual(contractHash, expectedScriptHash) {
				continue
			}

			// Parse Transfer event: [from, to, amount]
			if notif.State.Type != "Array" || len(notif.State.Value) < 3 {
				continue
			}

			// Get recipient address (index 1)
			toItem := notif.State.Value[1]
			toAddress, err := parseAddressFromStackItem(toItem)
			if err != nil {
				continue
			}

			// Check if recipient matches deposit address
			if toAddress != expectedRecipient {
				continue
			}

			// Get amount (index 2)
			amountItem := notif.State.Value[2]
			amount, err := parseIntegerFromStackItem(amountItem)
			if err != nil {
				continue
			}

			transferredAmount += amount
			foundTransfer = true
		}
	}

	if !foundTransfer {
		return fmt.Errorf("no transfer to deposit address %s found in transaction", expectedRecipient)
	}

	if transferredAmount < expectedAmount {
		return fmt.Errorf("insufficient deposit: expected %d, got %d", expectedAmount, transferredAmount)
	}

	return nil
}

// hashesEqual compares two script hashes, handling 0x prefix differences.
func hashesEqual(a, b string) bool {
	a = strings.TrimPrefix(strings.ToLower(a), "0x")
	b = strings.TrimPrefix(strings.ToLower(b), "0x")
	return a == b
}

// parseAddressFromStackItem extracts an address from a stack item.
func parseAddressFromStackItem(item interface{}) (string, error) {
	// Stack item can be a map with "type" and "value" fields
	if m, ok := item.(map[string]interface{}); ok {
		itemType, _ := m["type"].(string)
		value := m["value"]

		switch itemType {
		case "ByteString":
			// Base64 encoded script hash - decode and convert to address
			if b64, ok := value.(string); ok {
				// Try hex decoding first
				decoded, err := hex.DecodeString(b64)
				if err != nil {
					// Try base64 decoding
					decoded, err = base64.StdEncoding.DecodeString(b64)
					if err != nil {
						return "", err
					}
				}
				// Convert script hash bytes to address
				// Return hex representation for comparison
				return hex.EncodeToString(decoded), nil
			}
		case "Hash160":
			if addr, ok := value.(string); ok {
				return strings.TrimPrefix(strings.ToLower(addr), "0x"), nil
			}
		}
	}
	return "", fmt.Errorf("cannot parse address from stack item")
}

// parseIntegerFromStackItem extracts an integer from a stack item.
func parseIntegerFromStackItem(item interface{}) (int64, error) {
	if m, ok := item.(map[string]interface{}); ok {
		itemType, _ := m["type"].(string)
		value := m["value"]

		switch itemType {
		case "Integer":
			switch v := value.(type) {
			case string:
				var amount int64
				_, err := fmt.Sscanf(v, "%d", &amount)
				return amount, err
			case float64:
				return int64(v), nil
			case int64:
				return v, nil
			}
		}
	}
	return 0, fmt.Errorf("cannot parse integer from stack item")
}

// handleListRequests lists all requests for the current user.
func (s *Service) handleListRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.RequireUserID(w, r)
	if !ok {
		return
	}

	rows, err := s.repo.ListByUser(r.Context(), userID)
	if err != nil {
		httputil.InternalError(w, "failed to load requests")
		return
	}
	requests := make([]*MixRequest, 0, len(rows))
	for i := range rows {
		req := RequestFromRecord(&rows[i])
		requests = append(requests, req)
	}

	httputil.WriteJSON(w, http.StatusOK, requests)
}

// handleResumeRequest re-queues a mixing/delivery for a given request.
func (s *Service) handleResumeRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.RequireUserID(w, r)
	if !ok {
		return
	}

	requestID := mux.Vars(r)["id"]

	rec, err := s.repo.GetByID(r.Context(), requestID)
	if err != nil {
		httputil.NotFound(w, "request not found")
		return
	}
	req := RequestFromRecord(rec)

	// Verify ownership
	if req.UserID != userID {
		httputil.WriteError(w, http.StatusForbidden, "not authorized to resume this request")
		return
	}

	switch req.Status {
	case StatusDeposited:
		go s.startMixing(context.Background(), req)
	case StatusMixing:
		// Delivery checker will pick it up; optionally trigger immediately if duration elapsed
		go s.checkDeliveries(context.Background())
	default:
		httputil.BadRequest(w, "nothing to resume for current status")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, StatusMessageResponse{Status: "resumed"})
}

// handleDispute processes a user dispute and submits completion proof on-chain.
func (s *Service) handleDispute(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.RequireUserID(w, r)
	if !ok {
		return
	}

	requestID := mux.Vars(r)["id"]

	var input DisputeInput
	if !httputil.DecodeJSONOptional(w, r, &input) {
		return
	}

	rec, err := s.repo.GetByID(r.Context(), requestID)
	if err != nil {
		httputil.NotFound(w, "request not found")
		return
	}
	request := RequestFromRecord(rec)

	// Verify ownership
	if request.UserID != userID {
		httputil.WriteError(w, http.StatusForbidden, "not authorized to dispute this request")
		return
	}

	// Check if within dispute deadline
	if time.Now().Unix() > request.Deadline {
		httputil.BadRequest(w, "dispute deadline passed")
		return
	}

	response := DisputeResponse{
		RequestID: request.ID,
		Status:    string(request.Status),
	}

	switch request.Status {
	case StatusDelivered:
		// Mix completed - submit completion proof on-chain as evidence
		if request.CompletionProof == nil {
			httputil.InternalError(w, "completion proof not available")
			return
		}

		// Submit proof on-chain via TEE fulfiller (ONLY TIME we submit to chain)
		txHash, err := s.submitCompletionProofOnChain(r.Context(), request)
		if err != nil {
			httputil.InternalError(w, fmt.Sprintf("failed to submit proof: %v", err))
			return
		}

		response.CompletionProof = request.CompletionProof
		response.OnChainTxHash = txHash
		response.Message = "Completion proof submitted on-chain. Dispute resolved - mixing was completed."

	case StatusPending, StatusDeposited, StatusMixing:
		// Mix not yet complete - user can claim refund via on-chain dispute contract
		response.Message = fmt.Sprintf("Request status: %s. If not completed by deadline (%s), you can claim refund via dispute contract using your RequestProof.",
			request.Status, time.Unix(request.Deadline, 0).Format(time.RFC3339))

	case StatusFailed, StatusRefunded:
		response.Message = fmt.Sprintf("Request already %s. No dispute needed.", request.Status)

	default:
		httputil.InternalError(w, "unknown request status")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, response)
}

// handleGetCompletionProof returns the completion proof for a delivered request.
func (s *Service) handleGetCompletionProof(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.RequireUserID(w, r)
	if !ok {
		return
	}

	requestID := mux.Vars(r)["id"]

	rec, err := s.repo.GetByID(r.Context(), requestID)
	if err != nil {
		httputil.NotFound(w, "request not found")
		return
	}
	request := RequestFromRecord(rec)

	// Verify ownership
	if request.UserID != userID {
		httputil.WriteError(w, http.StatusForbidden, "not authorized to view this proof")
		return
	}

	if request.Status != StatusDelivered {
		httputil.BadRequest(w, fmt.Sprintf("request not delivered yet (status: %s)", request.Status))
		return
	}

	if request.CompletionProof == nil {
		httputil.InternalError(w, "completion proof not available")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, CompletionProofResponse{
		RequestID:       request.ID,
		Status:          request.Status,
		CompletionProof: request.CompletionProof,
		Message:         "Proof generated. Not submitted on-chain unless you file a dispute.",
	})
}
