// Package graph implements the directory client against a Microsoft
// Graph-style REST API. Profile and mail failures surface as directory
// errors; group lookups degrade to an empty result so login never blocks on
// directory availability.
package graph

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/oakmont/portal-api/internal/domain/auth"
	apperrors "github.com/oakmont/portal-api/internal/errors"
	"github.com/oakmont/portal-api/internal/ports"
)

// DefaultGroupsExpr selects group-typed objects from a memberOf response.
// Directory queries can return directoryRole objects in the same collection;
// those never feed role derivation.
const DefaultGroupsExpr = `value[?contains(not_null("@odata.type",''),'group')]`

// Cache is the subset of the byte cache used for group lookups. A nil Get
// result with nil error means the key is absent.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ClientOptions groups dependencies for the directory client.
type ClientOptions struct {
	BaseURL    string
	GroupsExpr string // JMESPath over the memberOf response; empty uses DefaultGroupsExpr
	HTTPClient *http.Client
	RoleMapper ports.RoleMapper
	Cache      Cache         // optional; nil disables group caching
	CacheTTL   time.Duration // <=0 disables group caching
	Logger     *slog.Logger
}

// Client calls the directory API with a caller-supplied bearer token.
type Client struct {
	baseURL    string
	groupsExpr string
	httpClient *http.Client
	roleMapper ports.RoleMapper
	cache      Cache
	cacheTTL   time.Duration
	logger     *slog.Logger
}

var _ ports.DirectoryClient = (*Client)(nil)

// NewClient constructs a directory client. The groups expression is compiled
// eagerly so a config typo fails at startup rather than on first login.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, apperrors.Init("directory base URL is required")
	}
	if opts.RoleMapper == nil {
		return nil, apperrors.Init("role mapper is required")
	}
	expr := strings.TrimSpace(opts.GroupsExpr)
	if expr == "" {
		expr = DefaultGroupsExpr
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInit, "compile groups expression")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		groupsExpr: expr,
		httpClient: httpClient,
		roleMapper: opts.RoleMapper,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		logger:     logger,
	}, nil
}

// Profile fetches the extended directory profile for the token's user.
func (c *Client) Profile(ctx context.Context, accessToken string) (domainauth.DirectoryProfile, error) {
	var raw struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
		JobTitle          string `json:"jobTitle"`
		OfficeLocation    string `json:"officeLocation"`
	}
	url := c.baseURL + "/me?$select=id,displayName,mail,userPrincipalName,jobTitle,officeLocation"
	if err := c.getJSON(ctx, url, accessToken, &raw); err != nil {
		return domainauth.DirectoryProfile{}, apperrors.Wrap(err, apperrors.ErrCodeDirectory, "fetch directory profile")
	}
	return domainauth.DirectoryProfile{
		ID:                raw.ID,
		DisplayName:       raw.DisplayName,
		Mail:              raw.Mail,
		UserPrincipalName: raw.UserPrincipalName,
		JobTitle:          raw.JobTitle,
		OfficeLocation:    raw.OfficeLocation,
	}, nil
}

// GroupsWithRoles fetches the user's group memberships with derived roles
// attached. Directory errors are absorbed: the caller receives an empty
// list and derivation proceeds from claim roles alone.
func (c *Client) GroupsWithRoles(ctx context.Context, accessToken string) []domainauth.Group {
	if cached, ok := c.cachedGroups(ctx, accessToken); ok {
		return cached
	}

	groups, err := c.fetchGroups(ctx, accessToken)
	if err != nil {
		c.logger.Warn("directory group lookup failed, continuing without groups", "error", err)
		return nil
	}

	for i := range groups {
		groups[i].Roles = c.roleMapper.Roles(groups[i].DisplayName)
	}
	c.storeGroups(ctx, accessToken, groups)
	return groups
}

// SendMessage relays a mail message on behalf of the token's user.
func (c *Client) SendMessage(ctx context.Context, accessToken string, msg ports.MailMessage) error {
	if len(msg.Recipients) == 0 {
		return apperrors.Validation("at least one recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return apperrors.Validation("subject is required")
	}

	contentType := "Text"
	if strings.EqualFold(msg.ContentType, "html") {
		contentType = "HTML"
	}
	type emailAddress struct {
		Address string `json:"address"`
	}
	type recipient struct {
		EmailAddress emailAddress `json:"emailAddress"`
	}
	recipients := make([]recipient, 0, len(msg.Recipients))
	for _, addr := range msg.Recipients {
		recipients = append(recipients, recipient{EmailAddress: emailAddress{Address: addr}})
	}
	payload := map[string]any{
		"message": map[string]any{
			"subject": msg.Subject,
			"body": map[string]string{
				"contentType": contentType,
				"content":     msg.Body,
			},
			"toRecipients": recipients,
		},
		"saveToSentItems": true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/me/sendMail", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sendMail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDirectory, "send mail")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.Directory(fmt.Sprintf("send mail: directory returned %d", resp.StatusCode))
	}
	return nil
}

// fetchGroups pages through the memberOf collection, applying the groups
// expression to each page.
func (c *Client) fetchGroups(ctx context.Context, accessToken string) ([]domainauth.Group, error) {
	var groups []domainauth.Group
	url := c.baseURL + "/me/memberOf?$top=999"
	for url != "" {
		var page map[string]any
		if err := c.getJSON(ctx, url, accessToken, &page); err != nil {
			return nil, err
		}

		selected, err := jmespath.Search(c.groupsExpr, page)
		if err != nil {
			return nil, fmt.Errorf("apply groups expression: %w", err)
		}
		items, _ := selected.([]any)
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			g := domainauth.Group{
				ID:          stringField(obj, "id"),
				DisplayName: stringField(obj, "displayName"),
				Description: stringField(obj, "description"),
			}
			if g.DisplayName == "" {
				continue
			}
			groups = append(groups, g)
		}

		url, _ = page["@odata.nextLink"].(string)
	}
	return groups, nil
}

func (c *Client) getJSON(ctx context.Context, url, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("directory returned %d for %s", resp.StatusCode, req.URL.Path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// cacheKey hashes the bearer token so the cache never holds raw credentials.
func (c *Client) cacheKey(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return "directory:groups:" + hex.EncodeToString(sum[:])
}

func (c *Client) cachedGroups(ctx context.Context, accessToken string) ([]domainauth.Group, bool) {
	if c.cache == nil || c.cacheTTL <= 0 {
		return nil, false
	}
	data, err := c.cache.Get(ctx, c.cacheKey(accessToken))
	if err != nil {
		c.logger.Warn("group cache read failed", "error", err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	var groups []domainauth.Group
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, false
	}
	return groups, true
}

func (c *Client) storeGroups(ctx context.Context, accessToken string, groups []domainauth.Group) {
	if c.cache == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(groups)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, c.cacheKey(accessToken), data, c.cacheTTL); err != nil {
		c.logger.Warn("group cache write failed", "error", err)
	}
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
