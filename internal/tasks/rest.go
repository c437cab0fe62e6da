package tasks

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const taskColumns = "title,description,status,priority,deadline,assigned_to"

// RESTStore reads tasks through the hosted store's PostgREST interface.
type RESTStore struct {
	BaseURL    string // project URL, without the /rest/v1 suffix
	APIKey     string
	HTTPClient *http.Client
}

func NewRESTStore(baseURL, apiKey string, client *http.Client) *RESTStore {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RESTStore{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: client,
	}
}

func (s *RESTStore) RecentTasks(ctx context.Context, userID string) ([]Task, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.tasksURL(userID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", s.APIKey)
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, fmt.Errorf("query tasks: store returned %d: %s", resp.StatusCode, msg)
	}

	return parseTaskRows(body)
}

func (s *RESTStore) tasksURL(userID string) string {
	q := quoteFilterValue(userID)

	v := url.Values{}
	v.Set("select", taskColumns)
	v.Set("or", fmt.Sprintf("(assigned_to.eq.%s,created_by.eq.%s)", q, q))
	v.Set("order", "created_at.desc")
	v.Set("limit", strconv.Itoa(MaxContextTasks))

	return s.BaseURL + "/rest/v1/tasks?" + v.Encode()
}

// quoteFilterValue wraps a value so PostgREST treats commas and parentheses
// inside it literally.
func quoteFilterValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}

func parseTaskRows(body []byte) ([]Task, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode tasks: invalid json")
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return nil, fmt.Errorf("decode tasks: expected array, got %s", doc.Type)
	}

	var result []Task
	doc.ForEach(func(_, row gjson.Result) bool {
		t := Task{
			Title:       row.Get("title").String(),
			Description: row.Get("description").String(),
			Status:      row.Get("status").String(),
			Priority:    row.Get("priority").String(),
			AssignedTo:  row.Get("assigned_to").String(),
		}
		if d := row.Get("deadline"); d.Exists() && d.Type != gjson.Null {
			if ts, ok := parseDeadline(d.String()); ok {
				t.Deadline = &ts
			} else {
				log.Printf("[WARN] task %q: unrecognized deadline %q", t.Title, d.String())
				t.RawDeadline = strings.TrimSpace(d.String())
			}
		}
		result = append(result, t)
		return true
	})

	if len(result) > MaxContextTasks {
		result = result[:MaxContextTasks]
	}
	return result, nil
}

var deadlineLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05",
}

func parseDeadline(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range deadlineLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
