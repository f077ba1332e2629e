package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"questserver/internal/models"
	"questserver/internal/pkg/address"
)

// ScoreVerifier asks the game-score service for the address's best score.
//
// With RequirePlay the task is satisfied by any recorded score, otherwise the score has to be
// strictly greater than Threshold.
type ScoreVerifier struct {
	Client      Doer
	BaseURL     string
	Threshold   int64
	RequirePlay bool
}

type scoreRequest struct {
	Addr string `json:"addr"`
}

type scoreResponse struct {
	Data  *int64 `json:"data"`
	Error string `json:"error"`
}

func (v *ScoreVerifier) Check(ctx context.Context, task *models.Task, addr string) (Decision, error) {
	if !address.IsHex(addr) {
		return NotYetSatisfied, ErrInvalidAddress
	}

	score, played, err := v.fetchScore(ctx, addr)
	if err != nil {
		return NotYetSatisfied, err
	}
	if !played {
		return NotYetSatisfied, nil
	}
	if v.RequirePlay || score > v.Threshold {
		return Verified, nil
	}
	return NotYetSatisfied, nil
}

func (v *ScoreVerifier) fetchScore(ctx context.Context, addr string) (int64, bool, error) {
	payload, err := json.Marshal(scoreRequest{Addr: addr})
	if err != nil {
		return 0, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(v.BaseURL, "/")+"/fetch_user_score", bytes.NewReader(payload))
	if err != nil {
		return 0, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.Client.Do(req)
	if err != nil {
		return 0, false, externalFailure("score service unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, false, nil
	case resp.StatusCode >= http.StatusBadRequest:
		//nolint:errcheck
		io.Copy(io.Discard, resp.Body)
		return 0, false, externalFailure(fmt.Sprintf("score service status %d", resp.StatusCode), nil)
	}

	var body scoreResponse
	err = json.NewDecoder(resp.Body).Decode(&body)
	if err != nil {
		return 0, false, externalFailure("score service response", err)
	}
	if body.Data == nil {
		return 0, false, nil
	}

	return *body.Data, true, nil
}
