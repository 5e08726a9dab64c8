package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AdminClient talks to the Supabase admin API with the service role key.
// Only the seeder uses it, to provision and reset the demo login; the
// regular request path never needs elevated credentials.
type AdminClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewAdminClient creates an admin client for the given Supabase project
func NewAdminClient(supabaseURL, serviceKey string) *AdminClient {
	return &AdminClient{
		baseURL:    supabaseURL + "/auth/v1/admin",
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type adminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CreateUser creates a confirmed user and returns its ID. The account is
// auto-confirmed so the seeded login works without an email round trip.
func (c *AdminClient) CreateUser(email, password string) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"email":         email,
		"password":      password,
		"email_confirm": true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal create user payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/users", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var created adminUser
	if err := c.do(req, &created); err != nil {
		return "", fmt.Errorf("create user %s: %w", email, err)
	}

	return created.ID, nil
}

// DeleteUserByEmail removes the user with the given email. Idempotent: a
// missing user is not an error.
func (c *AdminClient) DeleteUserByEmail(email string) error {
	userID, err := c.findUserID(email)
	if err != nil {
		return err
	}
	if userID == "" {
		return nil
	}

	req, err := http.NewRequest(http.MethodDelete, c.baseURL+"/users/"+userID, nil)
	if err != nil {
		return err
	}

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("delete user %s: %w", email, err)
	}

	return nil
}

func (c *AdminClient) findUserID(email string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/users", nil)
	if err != nil {
		return "", err
	}

	var listing struct {
		Users []adminUser `json:"users"`
	}
	if err := c.do(req, &listing); err != nil {
		return "", fmt.Errorf("list users: %w", err)
	}

	for _, user := range listing.Users {
		if user.Email == email {
			return user.ID, nil
		}
	}
	return "", nil
}

func (c *AdminClient) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("admin API returned %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
