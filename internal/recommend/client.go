// Package recommend is the client side of the external product
// recommendation service. The scoring itself is opaque: the client sends a
// bounded candidate list plus the tier's budget, discount rate, and the
// user's free-text requirement, and gets back ranked picks. A malformed
// response degrades to an empty recommendation list, never a crash.
package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/shanshui/giftplanner/internal/catalog"
)

// MaxCandidates caps the product context sent with one request.
const MaxCandidates = 150

// defaultRequirement stands in when the user leaves the free text empty.
const defaultRequirement = "寻找高性价比、美观的礼品组合"

// Candidate is the bounded product summary the service scores against.
type Candidate struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	RetailPrice decimal.Decimal `json:"retailPrice"`
	Category    string          `json:"category"`
}

// Recommendation is one ranked pick returned by the service.
type Recommendation struct {
	ProductID  string `json:"productId"`
	Reason     string `json:"reason"`
	Confidence int    `json:"confidence"` // 0-100
}

// ParseError reports a response that does not match the expected shape.
// Callers recover locally with an empty recommendation set and a
// user-visible notice; the costing flow is never affected.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("recommendation response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type request struct {
	Products     []Candidate     `json:"products"`
	Budget       decimal.Decimal `json:"budget"`
	DiscountRate decimal.Decimal `json:"discountRate"`
	Requirement  string          `json:"requirement"`
}

type response struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// Client calls the recommendation service. The client carries no timeout
// of its own; cancellation comes from the caller's context, and callers
// are expected not to overlap requests for the same tier.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    http.DefaultClient,
	}
}

// Recommend asks the service for picks from the product library matching a
// tier's budget and requirement. At most MaxCandidates products are sent.
// Results referencing ids outside the supplied candidates are dropped, and
// the remainder is ordered by confidence, highest first.
func (c *Client) Recommend(ctx context.Context, products []catalog.Product, budget, discountRate decimal.Decimal, requirement string) ([]Recommendation, error) {
	if requirement == "" {
		requirement = defaultRequirement
	}

	candidates := make([]Candidate, 0, min(len(products), MaxCandidates))
	known := make(map[string]bool, cap(candidates))
	for _, p := range products {
		if len(candidates) == MaxCandidates {
			break
		}
		candidates = append(candidates, Candidate{
			ID:          p.ID,
			Name:        p.Name,
			RetailPrice: p.RetailPrice,
			Category:    p.Category,
		})
		known[p.ID] = true
	}

	body, err := json.Marshal(request{
		Products:     candidates,
		Budget:       budget,
		DiscountRate: discountRate,
		Requirement:  requirement,
	})
	if err != nil {
		return nil, fmt.Errorf("encode recommendation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/recommendations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build recommendation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call recommendation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recommendation service returned %d", resp.StatusCode)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &ParseError{Err: err}
	}

	recs := parsed.Recommendations[:0]
	for _, r := range parsed.Recommendations {
		if known[r.ProductID] {
			recs = append(recs, r)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Confidence > recs[j].Confidence
	})
	return recs, nil
}
