// cmd/simulator/main.go
package main

import (
	"context"
	"log"
	"time"

	"chat-hive/simulator"
)

func main() {
	config := simulator.SimConfig{
		NumUsers:         20,
		NumGroups:        5,
		SimulationTime:   5 * time.Minute,
		MessageFrequency: 6.0,
		InviteFrequency:  1.0,
		PrivateRatio:     0.3,
		EngineURL:        "http://localhost:8080",
	}

	log.Printf("Starting simulation with configuration:")
	log.Printf("- Engine URL: %s", config.EngineURL)
	log.Printf("- Number of users: %d", config.NumUsers)
	log.Printf("- Number of groups: %d", config.NumGroups)
	log.Printf("- Simulation time: %v", config.SimulationTime)
	log.Printf("- Message frequency: %.2f messages/user/minute", config.MessageFrequency)
	log.Printf("- Invite frequency: %.2f invites/user/minute", config.InviteFrequency)
	log.Printf("- Private ratio: %.0f%%", config.PrivateRatio*100)

	sim := simulator.NewSimulator(config)
	ctx, cancel := context.WithTimeout(context.Background(), config.SimulationTime)
	defer cancel()

	if err := sim.Run(ctx); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	metrics := sim.Metrics()
	log.Printf("\nSimulation completed. Final metrics:")
	log.Printf("- Total requests: %d", metrics.TotalRequests)
	log.Printf("- Successful: %d", metrics.SuccessRequests)
	log.Printf("- Failed: %d", metrics.FailedRequests)
	log.Printf("- Messages sent: %d", metrics.TotalMessages)
	log.Printf("- Invites sent: %d", metrics.TotalInvites)
	log.Printf("- Chats created: %d", metrics.TotalChats)
}
