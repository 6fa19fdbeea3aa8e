package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mira-platform/miractl/internal/model"
)

// Login authenticates with username and password. Unlike every other
// endpoint, the login response carries its fields at the top level.
func (c *Client) Login(ctx context.Context, username, password string) (model.Session, error) {
	body := map[string]string{"username": username, "password": password}
	bodyBytes, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/admin/login", bytes.NewReader(bodyBytes))
	if err != nil {
		return model.Session{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return model.Session{}, networkErr(err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Token   string `json:"token"`
		User    struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.Session{}, networkErr(err)
	}
	if !result.Success {
		return model.Session{}, domainErr(resp.StatusCode, result.Message)
	}

	return model.Session{
		Token:       result.Token,
		Role:        model.ParseRole(result.User.Role, result.User.Username),
		DisplayName: result.User.Username,
	}, nil
}

// Logout notifies the server that the session is ending. Callers treat it as
// best-effort and clear local state regardless of the result.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/admin/logout", nil)
	return err
}

// Whoami returns the authenticated operator's username.
func (c *Client) Whoami(ctx context.Context) (string, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/admin/whoami", nil)
	if err != nil {
		return "", err
	}
	var profile struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &profile); err != nil {
		return "", fmt.Errorf("decode profile: %w", err)
	}
	return profile.Username, nil
}

// ListUsers fetches all platform users.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	return getList[model.User](ctx, c, "/api/admin/users")
}

// DeleteUser removes a user account.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/admin/users/"+id, nil)
	return err
}

// ListAdmins fetches every administrator account, super admins included; the
// store layer filters those out of the management view.
func (c *Client) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	return getList[model.Admin](ctx, c, "/api/admin/list")
}

// RegisterAdmin creates a new administrator account.
func (c *Client) RegisterAdmin(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	_, err := c.do(ctx, http.MethodPost, "/api/admin/register", body)
	return err
}

// DeleteAdmin revokes an administrator account.
func (c *Client) DeleteAdmin(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/%d", id), nil)
	return err
}

// ListFeatureLogs fetches the raw feature-usage events.
func (c *Client) ListFeatureLogs(ctx context.Context) ([]model.FeatureLog, error) {
	return getList[model.FeatureLog](ctx, c, "/api/dashboard/features")
}

// ListPosts fetches community posts with their comments nested.
func (c *Client) ListPosts(ctx context.Context) ([]model.Post, error) {
	return getList[model.Post](ctx, c, "/api/admin/community/posts")
}

// DeletePost removes a post and, server-side, its comments.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/admin/community/posts/"+id, nil)
	return err
}

// DeleteComment removes a single comment.
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/admin/community/comments/"+id, nil)
	return err
}

// ListReports fetches pending content reports.
func (c *Client) ListReports(ctx context.Context) ([]model.Report, error) {
	return getList[model.Report](ctx, c, "/api/admin/community/reports")
}

// DeleteReport removes a report record. The reported content is untouched.
func (c *Client) DeleteReport(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/admin/community/reports/"+id, nil)
	return err
}

// ListSubscriptionRequests fetches pending plan-upgrade requests.
func (c *Client) ListSubscriptionRequests(ctx context.Context) ([]model.SubscriptionRequest, error) {
	return getList[model.SubscriptionRequest](ctx, c, "/api/admin/subs/requests")
}

// ApproveSubscription grants a pending request.
func (c *Client) ApproveSubscription(ctx context.Context, requestID string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/admin/subs/approve", map[string]string{"requestId": requestID})
	return err
}

// RejectSubscription declines a pending request.
func (c *Client) RejectSubscription(ctx context.Context, requestID string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/admin/subs/reject", map[string]string{"requestId": requestID})
	return err
}

// UpdateSubscriptionLevel sets a user's plan directly.
func (c *Client) UpdateSubscriptionLevel(ctx context.Context, userID, newStatus string) error {
	body := map[string]string{"userId": userID, "newStatus": newStatus}
	_, err := c.do(ctx, http.MethodPost, "/api/admin/subs/update-level", body)
	return err
}

// ExportProfiles streams the user-profile export workbook into w and returns
// the byte count.
func (c *Client) ExportProfiles(ctx context.Context, w io.Writer) (int64, error) {
	return c.download(ctx, "/api/admin/export/profiles", w)
}

// ImportPosts uploads a spreadsheet of community posts and returns the
// server's result message.
func (c *Client) ImportPosts(ctx context.Context, filename string, r io.Reader) (string, error) {
	env, err := c.upload(ctx, "/api/admin/import/posts", filename, r)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}
