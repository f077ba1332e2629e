package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"questserver/internal/models"
	"questserver/internal/pkg/address"
)

// DomainVerifier is satisfied when the naming service resolves the address to a domain.
type DomainVerifier struct {
	Client  Doer
	BaseURL string
}

type domainResponse struct {
	Domain string `json:"domain"`
}

func (v *DomainVerifier) Check(ctx context.Context, task *models.Task, addr string) (Decision, error) {
	if !address.IsHex(addr) {
		return NotYetSatisfied, ErrInvalidAddress
	}

	endpoint := fmt.Sprintf("%s/addr_to_domain?addr=%s", strings.TrimRight(v.BaseURL, "/"), url.QueryEscape(addr))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return NotYetSatisfied, err
	}

	resp, err := v.Client.Do(req)
	if err != nil {
		return NotYetSatisfied, externalFailure("naming service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return NotYetSatisfied, nil
	}
	if resp.StatusCode != http.StatusOK {
		return NotYetSatisfied, externalFailure(fmt.Sprintf("naming service status %d", resp.StatusCode), nil)
	}

	var body domainResponse
	err = json.NewDecoder(resp.Body).Decode(&body)
	if err != nil {
		return NotYetSatisfied, externalFailure("naming service response", err)
	}
	if body.Domain == "" {
		return NotYetSatisfied, nil
	}

	return Verified, nil
}
