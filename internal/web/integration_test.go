package web_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ngelashvili/supra-backend/internal/db"
	"github.com/ngelashvili/supra-backend/internal/imagestore/local"
	"github.com/ngelashvili/supra-backend/internal/search"
	"github.com/ngelashvili/supra-backend/internal/service"
	"github.com/ngelashvili/supra-backend/internal/store"
	"github.com/ngelashvili/supra-backend/internal/web"
)

// recordingGenerator returns a canned backend response and captures the last
// request so tests can inspect what reached the backend.
type recordingGenerator struct {
	mu       sync.Mutex
	response string
	lastReq  search.Request
}

func (g *recordingGenerator) Generate(_ context.Context, req search.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastReq = req
	return g.response, nil
}

func (g *recordingGenerator) GenerateStream(_ context.Context, req search.Request) (<-chan search.Chunk, error) {
	g.mu.Lock()
	g.lastReq = req
	response := g.response
	g.mu.Unlock()

	ch := make(chan search.Chunk, 2)
	ch <- search.Chunk{Text: response[:len(response)/2]}
	ch <- search.Chunk{Text: response[len(response)/2:]}
	close(ch)
	return ch, nil
}

func (g *recordingGenerator) setResponse(response string) {
	g.mu.Lock()
	g.response = response
	g.mu.Unlock()
}

func (g *recordingGenerator) last() search.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastReq
}

// newTestServer wires a full Server over an in-memory database and the stub
// backend.
func newTestServer(t *testing.T, gen search.Generator) *httptest.Server {
	t.Helper()
	database, err := db.OpenForTesting()
	if err != nil {
		t.Fatalf("OpenForTesting: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	logger := slog.New(slog.DiscardHandler)
	restaurantStore := store.NewRestaurantStore(database)
	images, err := local.NewLocalImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalImageStore: %v", err)
	}

	server := web.NewServer(
		service.NewRestaurantService(restaurantStore, logger),
		service.NewDishService(store.NewDishStore(database), restaurantStore, images, logger),
		service.NewUserService(store.NewUserStore(database), logger),
		service.NewPreferenceService(store.NewPreferenceStore(database), store.NewUserStore(database), logger),
		service.NewSearchService(restaurantStore, search.NewEngine(gen, logger), logger),
		[]string{"*"},
		logger,
	)
	srv := httptest.NewServer(server)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// createRestaurant posts a valid restaurant and returns its ID.
func createRestaurant(t *testing.T, srv *httptest.Server, name string) int64 {
	t.Helper()
	resp := postJSON(t, srv.URL+"/restaurants", map[string]any{
		"name": name, "address": "1 Rustaveli Ave", "latitude": 41.7, "longitude": 44.8,
		"workingHours": "10:00-23:00", "phone": "+995 32 222 0000", "priceRange": 2,
	})
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("POST /restaurants status %d: %s", resp.StatusCode, body)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	decodeJSON(t, resp, &created)
	return created.ID
}

func createDish(t *testing.T, srv *httptest.Server, restaurantID int64, name string, price float64) int64 {
	t.Helper()
	resp := postJSON(t, srv.URL+"/dishes", map[string]any{
		"restaurantId": restaurantID, "name": name, "price": price,
	})
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("POST /dishes status %d: %s", resp.StatusCode, body)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	decodeJSON(t, resp, &created)
	return created.ID
}

func TestIntegration_RestaurantCRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv := newTestServer(t, &recordingGenerator{})
	id := createRestaurant(t, srv, "Sakhli 11")

	resp, err := http.Get(fmt.Sprintf("%s/restaurants/%d", srv.URL, id))
	if err != nil {
		t.Fatalf("GET /restaurants/%d: %v", id, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Sakhli 11") {
		t.Errorf("response does not contain restaurant name:\n%s", body)
	}

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/restaurants/%d", srv.URL, id), nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	_ = delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", delResp.StatusCode)
	}

	missing, err := http.Get(fmt.Sprintf("%s/restaurants/%d", srv.URL, id))
	if err != nil {
		t.Fatalf("GET after delete: %v", err)
	}
	_ = missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", missing.StatusCode)
	}
}

func TestIntegration_RestaurantValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv := newTestServer(t, &recordingGenerator{})

	resp := postJSON(t, srv.URL+"/restaurants", map[string]any{"name": "", "priceRange": 2})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for empty name, got %d", resp.StatusCode)
	}
}

func TestIntegration_DishLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv := newTestServer(t, &recordingGenerator{})
	restaurantID := createRestaurant(t, srv, "Sakhli 11")
	dishID := createDish(t, srv, restaurantID, "Khinkali", 12.00)

	resp, err := http.Get(fmt.Sprintf("%s/restaurants/%d/dishes", srv.URL, restaurantID))
	if err != nil {
		t.Fatalf("GET dishes: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Khinkali") {
		t.Errorf("dish list does not contain Khinkali:\n%s", body)
	}

	// Orphan dishes are rejected.
	orphan := postJSON(t, srv.URL+"/dishes", map[string]any{"restaurantId": 9999, "name": "Orphan", "price": 1.0})
	if orphan.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown restaurant, got %d", orphan.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/dishes/%d", srv.URL, dishID), nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE dish: %v", err)
	}
	_ = delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", delResp.StatusCode)
	}
}

func TestIntegration_DishSearchAndMenuClear(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv := newTestServer(t, &recordingGenerator{})
	restaurantID := createRestaurant(t, srv, "Sakhli 11")

	resp := postJSON(t, srv.URL+"/dishes", map[string]any{
		"restaurantId": restaurantID, "name": "Pkhali Trio", "price": 9.0,
		"tags": []string{"vegetarian", "cold"}, "allergens": []string{"walnut"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /dishes status %d", resp.StatusCode)
	}
	resp = postJSON(t, srv.URL+"/dishes", map[string]any{
		"restaurantId": restaurantID, "name": "Mtsvadi", "price": 25.0,
		"tags": []string{"grilled"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /dishes status %d", resp.StatusCode)
	}

	byTags, err := http.Get(srv.URL + "/dishes/search/tags?tags=vegetarian&tags=cold")
	if err != nil {
		t.Fatalf("GET tags search: %v", err)
	}
	t.Cleanup(func() { _ = byTags.Body.Close() })
	var tagged []struct {
		Name string `json:"name"`
	}
	decodeJSON(t, byTags, &tagged)
	if len(tagged) != 1 || tagged[0].Name != "Pkhali Trio" {
		t.Errorf("tags search = %+v, want just Pkhali Trio", tagged)
	}

	safe, err := http.Get(srv.URL + "/dishes/search/allergens?allergens=walnut")
	if err != nil {
		t.Fatalf("GET allergens search: %v", err)
	}
	t.Cleanup(func() { _ = safe.Body.Close() })
	var safeDishes []struct {
		Name string `json:"name"`
	}
	decodeJSON(t, safe, &safeDishes)
	if len(safeDishes) != 1 || safeDishes[0].Name != "Mtsvadi" {
		t.Errorf("allergens search = %+v, want just Mtsvadi", safeDishes)
	}

	missing, err := http.Get(srv.URL + "/dishes/search/tags")
	if err != nil {
		t.Fatalf("GET tags search without tags: %v", err)
	}
	_ = missing.Body.Close()
	if missing.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without tags, got %d", missing.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/restaurants/%d/dishes", srv.URL, restaurantID), nil)
	cleared, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE menu: %v", err)
	}
	_ = cleared.Body.Close()
	if cleared.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 clearing menu, got %d", cleared.StatusCode)
	}

	list, err := http.Get(fmt.Sprintf("%s/restaurants/%d/dishes", srv.URL, restaurantID))
	if err != nil {
		t.Fatalf("GET dishes: %v", err)
	}
	t.Cleanup(func() { _ = list.Body.Close() })
	var remaining []struct {
		Name string `json:"name"`
	}
	decodeJSON(t, list, &remaining)
	if len(remaining) != 0 {
		t.Errorf("menu not empty after clear: %+v", remaining)
	}
}

func TestIntegration_DishImageUploadAndDownload(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv := newTestServer(t, &recordingGenerator{})
	restaurantID := createRestaurant(t, srv, "Sakhli 11")
	dishID := createDish(t, srv, restaurantID, "Khinkali", 12.00)

	imageData := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("image", "khinkali.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(imageData); err != nil {
		t.Fatalf("write image: %v", err)
	}
	_ = w.Close()

	resp, err := http.Post(fmt.Sprintf("%s/dishes/%d/image", srv.URL, dishID), w.FormDataContentType(), body)
	if err != nil {
		t.Fatalf("POST image: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, b)
	}

	download, err := http.Get(fmt.Sprintf("%s/dishes/%d/image", srv.URL, dishID))
	if err != nil {
		t.Fatalf("GET image: %v", err)
	}
	t.Cleanup(func() { _ = download.Body.Close() })
	got, _ := io.ReadAll(download.Body)
	if !bytes.Equal(got, imageData) {
		t.Errorf("downloaded image differs from upload")
	}
	if ct := download.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", ct)
	}
}

func TestIntegration_UserAndPreferences(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv := newTestServer(t, &recordingGenerator{})

	resp := postJSON(t, srv.URL+"/users", map[string]any{"name": "Nino", "email": "nino@example.com"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /users status %d", resp.StatusCode)
	}
	var user struct {
		ID int64 `json:"id"`
	}
	decodeJSON(t, resp, &user)

	dup := postJSON(t, srv.URL+"/users", map[string]any{"name": "Nino Again", "email": "nino@example.com"})
	if dup.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", dup.StatusCode)
	}

	pref := postJSON(t, srv.URL+"/preferences", map[string]any{"userId": user.ID, "allergen": "walnut"})
	if pref.StatusCode != http.StatusCreated {
		t.Fatalf("POST /preferences status %d", pref.StatusCode)
	}

	list, err := http.Get(fmt.Sprintf("%s/users/%d/preferences", srv.URL, user.ID))
	if err != nil {
		t.Fatalf("GET preferences: %v", err)
	}
	t.Cleanup(func() { _ = list.Body.Close() })
	body, _ := io.ReadAll(list.Body)
	if !strings.Contains(string(body), "walnut") {
		t.Errorf("preference list does not contain allergen:\n%s", body)
	}

	byEmail, err := http.Get(srv.URL + "/users/email/nino@example.com")
	if err != nil {
		t.Fatalf("GET user by email: %v", err)
	}
	t.Cleanup(func() { _ = byEmail.Body.Close() })
	var found struct {
		ID int64 `json:"id"`
	}
	decodeJSON(t, byEmail, &found)
	if found.ID != user.ID {
		t.Errorf("email lookup returned user %d, want %d", found.ID, user.ID)
	}

	unknown, err := http.Get(srv.URL + "/users/email/nobody@example.com")
	if err != nil {
		t.Fatalf("GET unknown email: %v", err)
	}
	_ = unknown.Body.Close()
	if unknown.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown email, got %d", unknown.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/users/%d/preferences", srv.URL, user.ID), nil)
	cleared, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE preferences: %v", err)
	}
	_ = cleared.Body.Close()
	if cleared.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 clearing preferences, got %d", cleared.StatusCode)
	}

	empty, err := http.Get(fmt.Sprintf("%s/users/%d/preferences", srv.URL, user.ID))
	if err != nil {
		t.Fatalf("GET preferences after clear: %v", err)
	}
	t.Cleanup(func() { _ = empty.Body.Close() })
	emptyBody, _ := io.ReadAll(empty.Body)
	if strings.Contains(string(emptyBody), "walnut") {
		t.Errorf("preferences not cleared:\n%s", emptyBody)
	}
}

func TestIntegration_AISearch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	gen := &recordingGenerator{}
	srv := newTestServer(t, gen)
	restaurantID := createRestaurant(t, srv, "Sakhli 11")
	createDish(t, srv, restaurantID, "Khinkali", 12.00)
	gen.setResponse(fmt.Sprintf(
		`{"results": [{"restaurant_id": "%d", "restaurant_name": "Sakhli 11", "dish_name": "Khinkali", "dish_price": 12.0}], "operation_performed": "added"}`,
		restaurantID))

	resp := postJSON(t, srv.URL+"/restaurants/search-ai", map[string]any{"text": "I want khinkali"})
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var out struct {
		Status      string `json:"status"`
		Restaurants []struct {
			Name   string `json:"name"`
			Dishes []struct {
				Name string `json:"name"`
			} `json:"dishes"`
		} `json:"restaurants"`
		Selection *search.Selection `json:"selection"`
	}
	decodeJSON(t, resp, &out)

	if out.Status != "success" {
		t.Fatalf("status = %q, want success", out.Status)
	}
	if len(out.Restaurants) != 1 || len(out.Restaurants[0].Dishes) != 1 {
		t.Fatalf("unexpected reconciled catalog: %+v", out.Restaurants)
	}
	if out.Selection == nil || len(out.Selection.Pending) != 1 {
		t.Errorf("selection context missing from response")
	}
	if !strings.Contains(gen.last().Instructions, "Khinkali") {
		t.Errorf("backend prompt does not contain catalog data")
	}
}

func TestIntegration_AISearchStream(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	gen := &recordingGenerator{}
	srv := newTestServer(t, gen)
	restaurantID := createRestaurant(t, srv, "Sakhli 11")
	createDish(t, srv, restaurantID, "Khinkali", 12.00)
	gen.setResponse(`{"results": [], "operation_performed": "no_change"}`)

	// Multipart form with an image part, the same request shape clients use.
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	_ = w.WriteField("text", "what is this dish")
	fw, err := w.CreateFormFile("image", "photo.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0}); err != nil {
		t.Fatalf("write image: %v", err)
	}
	_ = w.Close()

	resp, err := http.Post(srv.URL+"/restaurants/search-ai/stream", w.FormDataContentType(), body)
	if err != nil {
		t.Fatalf("POST stream: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, b)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	var fragments string
	done := false
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: done") {
			done = true
			break
		}
		if strings.HasPrefix(line, "data: ") {
			var payload struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal([]byte(line[6:]), &payload); err == nil {
				fragments += payload.Text
			}
		}
	}
	if !done {
		t.Error("stream did not terminate with a done event")
	}
	if fragments != `{"results": [], "operation_performed": "no_change"}` {
		t.Errorf("concatenated fragments = %q", fragments)
	}
	if gen.last().Image == nil {
		t.Error("backend did not receive the uploaded image")
	}
}
