// simulator/simulator.go
package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

type SimConfig struct {
	NumUsers         int
	NumGroups        int
	SimulationTime   time.Duration
	MessageFrequency float64 // messages per user per minute
	InviteFrequency  float64 // invites per user per minute
	PrivateRatio     float64 // fraction of users flipped to private
	EngineURL        string
}

type SimulationStats struct {
	mu              sync.RWMutex
	StartTime       time.Time
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	TotalMessages   int
	TotalInvites    int
	TotalChats      int
	Latencies       []time.Duration
}

func (st *SimulationStats) record(latency time.Duration, ok bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.TotalRequests++
	if ok {
		st.SuccessRequests++
	} else {
		st.FailedRequests++
	}
	st.Latencies = append(st.Latencies, latency)
}

// SimulatedUser tracks one registered identity and its auth token.
type SimulatedUser struct {
	ID       uuid.UUID
	Username string
	Email    string
	Password string
	Token    string
	Chats    []uuid.UUID
}

type Simulator struct {
	config SimConfig
	stats  *SimulationStats
	users  []*SimulatedUser
	groups []uuid.UUID
	client *http.Client
	mu     sync.RWMutex
}

func NewSimulator(config SimConfig) *Simulator {
	return &Simulator{
		config: config,
		stats: &SimulationStats{
			StartTime: time.Now(),
		},
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Metrics returns a copy of the collected statistics.
func (s *Simulator) Metrics() SimulationStats {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()
	return SimulationStats{
		StartTime:       s.stats.StartTime,
		TotalRequests:   s.stats.TotalRequests,
		SuccessRequests: s.stats.SuccessRequests,
		FailedRequests:  s.stats.FailedRequests,
		TotalMessages:   s.stats.TotalMessages,
		TotalInvites:    s.stats.TotalInvites,
		TotalChats:      s.stats.TotalChats,
	}
}

func (s *Simulator) Run(ctx context.Context) error {
	log.Printf("Starting simulation...")

	if err := s.initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateMessaging(ctx)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateInvites(ctx)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.collectMetrics(ctx)
	}()

	wg.Wait()
	return nil
}

func (s *Simulator) initialize(ctx context.Context) error {
	log.Printf("Phase 1: Registering %d users...", s.config.NumUsers)
	if err := s.createUsers(ctx); err != nil {
		return err
	}

	log.Printf("Phase 2: Flipping ~%.0f%% of users private...", s.config.PrivateRatio*100)
	s.applyVisibility(ctx)

	log.Printf("Phase 3: Opening direct chats...")
	s.openDirectChats(ctx)

	log.Printf("Phase 4: Creating %d group chats...", s.config.NumGroups)
	s.createGroups(ctx)

	log.Printf("Initialization completed: %d users, %d groups", len(s.users), len(s.groups))
	return nil
}

func (s *Simulator) createUsers(ctx context.Context) error {
	numWorkers := 5
	jobs := make(chan int, numWorkers)
	results := make(chan *SimulatedUser, numWorkers)

	var wg sync.WaitGroup

	rateLimiter := time.NewTicker(100 * time.Millisecond)
	defer rateLimiter.Stop()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for userNum := range jobs {
				<-rateLimiter.C

				user := &SimulatedUser{
					Username: fmt.Sprintf("user_%d", userNum),
					Email:    fmt.Sprintf("user_%d@test.com", userNum),
					Password: fmt.Sprintf("password_%d", userNum),
				}
				if err := s.registerAndLogin(ctx, user); err != nil {
					log.Printf("Failed to set up user %s: %v", user.Username, err)
					continue
				}
				results <- user
			}
		}()
	}

	go func() {
		for i := 0; i < s.config.NumUsers; i++ {
			jobs <- i
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	for user := range results {
		s.mu.Lock()
		s.users = append(s.users, user)
		s.mu.Unlock()
	}
	if len(s.users) == 0 {
		return fmt.Errorf("no users could be registered")
	}
	return nil
}

func (s *Simulator) registerAndLogin(ctx context.Context, user *SimulatedUser) error {
	var registered struct {
		ID string `json:"id"`
	}
	err := s.post(ctx, "", "/user/register", map[string]string{
		"username": user.Username,
		"email":    user.Email,
		"password": user.Password,
	}, &registered)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(registered.ID)
	if err != nil {
		return fmt.Errorf("bad user ID in register response: %v", err)
	}
	user.ID = id

	var login struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	err = s.post(ctx, "", "/user/login", map[string]string{
		"email":    user.Email,
		"password": user.Password,
	}, &login)
	if err != nil {
		return err
	}
	if !login.Success {
		return fmt.Errorf("login rejected for %s", user.Username)
	}
	user.Token = login.Token
	return nil
}

func (s *Simulator) applyVisibility(ctx context.Context) {
	for _, user := range s.users {
		if rand.Float64() >= s.config.PrivateRatio {
			continue
		}
		if err := s.put(ctx, user.Token, "/user/visibility", map[string]string{
			"visibility": "private",
		}, nil); err != nil {
			log.Printf("Failed to set visibility for %s: %v", user.Username, err)
		}
	}
}

func (s *Simulator) openDirectChats(ctx context.Context) {
	// Each user opens a chat with the next one; private peers answer
	// with the invite requirement, which the messaging loop exercises.
	for i, user := range s.users {
		other := s.users[(i+1)%len(s.users)]
		if other.ID == user.ID {
			continue
		}
		var chat struct {
			ID string `json:"id"`
		}
		err := s.post(ctx, user.Token, "/chat/direct", map[string]string{
			"userId": other.ID.String(),
		}, &chat)
		if err != nil {
			continue
		}
		if chatID, err := uuid.Parse(chat.ID); err == nil {
			user.Chats = append(user.Chats, chatID)
			s.stats.mu.Lock()
			s.stats.TotalChats++
			s.stats.mu.Unlock()
		}
	}
}

func (s *Simulator) createGroups(ctx context.Context) {
	for i := 0; i < s.config.NumGroups && len(s.users) > 2; i++ {
		creator := s.users[rand.Intn(len(s.users))]
		memberIDs := make([]string, 0, 3)
		for j := 0; j < 3; j++ {
			member := s.users[rand.Intn(len(s.users))]
			if member.ID != creator.ID {
				memberIDs = append(memberIDs, member.ID.String())
			}
		}

		var chat struct {
			ID string `json:"id"`
		}
		err := s.post(ctx, creator.Token, "/chat/group", map[string]interface{}{
			"name":      fmt.Sprintf("group_%d", i),
			"memberIds": memberIDs,
		}, &chat)
		if err != nil {
			log.Printf("Failed to create group %d: %v", i, err)
			continue
		}
		if chatID, err := uuid.Parse(chat.ID); err == nil {
			creator.Chats = append(creator.Chats, chatID)
			s.mu.Lock()
			s.groups = append(s.groups, chatID)
			s.mu.Unlock()
			s.stats.mu.Lock()
			s.stats.TotalChats++
			s.stats.mu.Unlock()
		}
	}
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := s.Metrics()
			log.Printf("requests=%d ok=%d failed=%d messages=%d invites=%d chats=%d",
				m.TotalRequests, m.SuccessRequests, m.FailedRequests,
				m.TotalMessages, m.TotalInvites, m.TotalChats)
		}
	}
}

// post issues an authenticated JSON POST and decodes the response into
// out when provided.
func (s *Simulator) post(ctx context.Context, token, path string, body interface{}, out interface{}) error {
	return s.do(ctx, http.MethodPost, token, path, body, out)
}

func (s *Simulator) put(ctx context.Context, token, path string, body interface{}, out interface{}) error {
	return s.do(ctx, http.MethodPut, token, path, body, out)
}

func (s *Simulator) do(ctx context.Context, method, token, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.EngineURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	startTime := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(startTime)
	if err != nil {
		s.stats.record(latency, false)
		return err
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	s.stats.record(latency, ok)
	if !ok {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(raw))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
