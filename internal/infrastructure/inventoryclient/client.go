// Package inventoryclient implements the RPC boundary to the inventory
// service with bounded retry and exponential backoff.
package inventoryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/andreyxaxa/kitchen-stream/internal/dto"
	"github.com/andreyxaxa/kitchen-stream/internal/entity"
	"github.com/andreyxaxa/kitchen-stream/internal/infrastructure"
	"github.com/andreyxaxa/kitchen-stream/pkg/logger"
)

type Client struct {
	base   string
	http   *retryablehttp.Client
	logger logger.Interface
}

var _ infrastructure.InventoryClient = (*Client)(nil)

func New(baseURL string, retryMax int, waitMin, waitMax time.Duration, l logger.Interface) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.RetryWaitMin = waitMin
	rc.RetryWaitMax = waitMax
	rc.Logger = nil

	return &Client{
		base:   baseURL,
		http:   rc,
		logger: l,
	}
}

func (c *Client) Menu(ctx context.Context) (*entity.Menu, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.base+"/menu", nil)
	if err != nil {
		return nil, fmt.Errorf("InventoryClient - Menu - retryablehttp.NewRequestWithContext: %w", err)
	}

	menu := &entity.Menu{}
	if err := c.do(req, menu); err != nil {
		return nil, fmt.Errorf("InventoryClient - Menu: %w", err)
	}

	return menu, nil
}

func (c *Client) ConsumeRecipes(ctx context.Context, request *dto.ConsumeRecipesRequest) (*dto.ConsumeRecipesResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("InventoryClient - ConsumeRecipes - json.Marshal: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.base+"/consumeRecipeIngridients", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("InventoryClient - ConsumeRecipes - retryablehttp.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	response := &dto.ConsumeRecipesResponse{}
	if err := c.do(req, response); err != nil {
		return nil, fmt.Errorf("InventoryClient - ConsumeRecipes: %w", err)
	}

	return response, nil
}

func (c *Client) do(req *retryablehttp.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("c.http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		c.logger.Warn("inventory RPC %s returned status %d", req.URL.Path, resp.StatusCode)

		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}
