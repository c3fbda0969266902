// simulator/activities.go
package simulator

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"
)

// simulateMessaging drives the steady-state message load: each tick a
// random user posts into one of their chats, occasionally marking the
// chat read afterwards.
func (s *Simulator) simulateMessaging(ctx context.Context) {
	if s.config.MessageFrequency <= 0 {
		return
	}
	perMinute := s.config.MessageFrequency * float64(len(s.users))
	interval := time.Duration(float64(time.Minute) / perMinute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	counter := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			user := s.randomUser()
			if user == nil || len(user.Chats) == 0 {
				continue
			}
			chatID := user.Chats[rand.Intn(len(user.Chats))]
			counter++

			err := s.post(ctx, user.Token, "/message/send", map[string]string{
				"chatId":  chatID.String(),
				"content": fmt.Sprintf("message %d from %s", counter, user.Username),
			}, nil)
			if err != nil {
				// RequiresInvite and block rejections are expected
				// traffic here, not failures worth logging.
				continue
			}
			s.stats.mu.Lock()
			s.stats.TotalMessages++
			s.stats.mu.Unlock()

			if rand.Float64() < 0.3 {
				_ = s.post(ctx, user.Token, "/message/read", map[string]string{
					"chatId": chatID.String(),
				}, nil)
			}
		}
	}
}

// simulateInvites periodically sends message invites between random
// pairs and has recipients accept or decline them.
func (s *Simulator) simulateInvites(ctx context.Context) {
	if s.config.InviteFrequency <= 0 {
		return
	}
	perMinute := s.config.InviteFrequency * float64(len(s.users))
	interval := time.Duration(float64(time.Minute) / perMinute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			from := s.randomUser()
			to := s.randomUser()
			if from == nil || to == nil || from.ID == to.ID {
				continue
			}

			var invite struct {
				ID string `json:"id"`
			}
			err := s.post(ctx, from.Token, "/invite", map[string]string{
				"userId": to.ID.String(),
				"kind":   "message",
				"note":   "hi from " + from.Username,
			}, &invite)
			if err != nil {
				continue
			}
			s.stats.mu.Lock()
			s.stats.TotalInvites++
			s.stats.mu.Unlock()

			// Recipient resolves the invite most of the time.
			action := "/invite/accept"
			if rand.Float64() < 0.2 {
				action = "/invite/decline"
			}
			if err := s.post(ctx, to.Token, action, map[string]string{
				"inviteId": invite.ID,
			}, nil); err != nil {
				log.Printf("Failed to resolve invite %s: %v", invite.ID, err)
			}
		}
	}
}

func (s *Simulator) randomUser() *SimulatedUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.users) == 0 {
		return nil
	}
	return s.users[rand.Intn(len(s.users))]
}
