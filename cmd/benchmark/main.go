// Benchmark tool for load-testing Starboost with a synthetic challenge.
//
// Usage:
//   go run cmd/benchmark/main.go -url http://localhost:8080 -transactions 50000
//
// This tool:
//  1. Creates a challenge with filter, score, winning, and reward rules
//  2. Enrolls a synthetic sales force (agents, commercials, managers)
//  3. Records transactions concurrently and measures ingest throughput
//  4. Runs repeated evaluations and measures end-to-end latency
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var contractTypes = []string{"AUTO", "HOME", "HEALTH", "LIFE"}

// Metrics tracks benchmark results.
type Metrics struct {
	TxSent   int64
	TxErrors int64
	TxTimeMs int64

	EvalRuns    int64
	EvalErrors  int64
	EvalTimeMs  int64
	EvalWinners int64
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Starboost base URL")
	sellers := flag.Int("sellers", 200, "Number of synthetic sellers")
	agencies := flag.Int("agencies", 20, "Number of agencies")
	regions := flag.Int("regions", 4, "Number of regions")
	txCount := flag.Int("transactions", 10000, "Number of transactions to record")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	evaluations := flag.Int("evaluations", 20, "Number of evaluation runs to time")
	flag.Parse()

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║          STARBOOST BENCHMARK - Synthetic Challenge            ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nStarboost URL: %s\n", *baseURL)
	fmt.Printf("Sellers:       %d\n", *sellers)
	fmt.Printf("Agencies:      %d\n", *agencies)
	fmt.Printf("Regions:       %d\n", *regions)
	fmt.Printf("Transactions:  %d\n", *txCount)
	fmt.Printf("Workers:       %d\n", *workers)
	fmt.Printf("Evaluations:   %d\n", *evaluations)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Starboost not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Starboost is running:")
		fmt.Println("  go run cmd/starboost/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Starboost is healthy")

	client := &http.Client{Timeout: 30 * time.Second}

	challengeID, err := createChallenge(client, *baseURL)
	if err != nil {
		fmt.Printf("ERROR: failed to create challenge: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Challenge created: %s\n", challengeID)

	if err := enroll(client, *baseURL, challengeID, *sellers, *agencies, *regions); err != nil {
		fmt.Printf("ERROR: failed to enroll participants: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Enrolled %d sellers across %d agencies in %d regions\n", *sellers, *agencies, *regions)

	metrics := &Metrics{}

	fmt.Printf("\nRecording %d transactions with %d workers...\n", *txCount, *workers)
	ingestStart := time.Now()
	recordTransactions(client, *baseURL, challengeID, *txCount, *sellers, *workers, metrics)
	ingestDuration := time.Since(ingestStart)

	fmt.Printf("\nRunning %d evaluations...\n", *evaluations)
	runEvaluations(client, *baseURL, challengeID, *evaluations, metrics)

	printResults(metrics, ingestDuration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func createChallenge(client *http.Client, baseURL string) (string, error) {
	now := time.Now().UTC()
	challenge := map[string]any{
		"name":        "benchmark-challenge",
		"startDate":   now.AddDate(0, 0, -30).Format(time.RFC3339),
		"endDate":     now.AddDate(0, 0, 30).Format(time.RFC3339),
		"targetRoles": []string{"AGENT", "COMMERCIAL", "AGENCY_MANAGER", "REGIONAL_MANAGER"},
		"status":      "ONGOING",
		"filterRules": []map[string]any{
			{"transactionNature": "NEW_BUSINESS"},
		},
		"scoreRules": []map[string]any{
			{"scoreType": "CONTRACT", "contractType": "AUTO", "points": 10},
			{"scoreType": "CONTRACT", "contractType": "HOME", "points": 15},
			{"scoreType": "REVENUE", "points": 1, "revenueUnit": 100},
		},
		"winningRules": []map[string]any{
			{"roleCategory": "AGENT", "conditionType": "MIN_CONTRACTS", "thresholdMin": 1},
			{"roleCategory": "COMMERCIAL", "conditionType": "MIN_CONTRACTS", "thresholdMin": 1},
			{"roleCategory": "AGENCY_MANAGER", "conditionType": "WEIGHTED_AVG_AGENCY", "thresholdMin": 5},
			{"roleCategory": "REGIONAL_MANAGER", "conditionType": "WEIGHTED_AVG_REGION", "thresholdMin": 5},
		},
		"rewardRules": []map[string]any{
			{"roleCategory": "AGENT", "payoutType": "FIXED_TIERS", "tierMin": 0, "tierMax": 100, "baseAmount": 50},
			{"roleCategory": "AGENT", "payoutType": "FIXED_TIERS", "tierMin": 100, "tierMax": 100000, "baseAmount": 200},
			{"roleCategory": "COMMERCIAL", "payoutType": "PERCENT_TIERS", "tierMin": 0, "tierMax": 1000000, "baseAmount": 0.01},
			{"roleCategory": "AGENCY_MANAGER", "payoutType": "FIXED_TIERS", "tierMin": 0, "tierMax": 100000, "baseAmount": 300},
			{"roleCategory": "REGIONAL_MANAGER", "payoutType": "FIXED_TIERS", "tierMin": 0, "tierMax": 100000, "baseAmount": 500},
		},
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := postJSON(client, baseURL+"/challenges", challenge, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func enroll(client *http.Client, baseURL, challengeID string, sellers, agencyCount, regionCount int) error {
	var agencies []map[string]any
	for i := 1; i <= agencyCount; i++ {
		agencies = append(agencies, map[string]any{
			"id":       i,
			"name":     fmt.Sprintf("Agency %d", i),
			"regionId": (i % regionCount) + 1,
		})
	}
	var regions []map[string]any
	for i := 1; i <= regionCount; i++ {
		regions = append(regions, map[string]any{
			"id":   i,
			"name": fmt.Sprintf("Region %d", i),
		})
	}

	var participants []map[string]any
	for i := 1; i <= sellers; i++ {
		agencyID := (i % agencyCount) + 1
		regionID := (agencyID % regionCount) + 1
		role := "AGENT"
		if i%2 == 0 {
			role = "COMMERCIAL"
		}
		participants = append(participants, map[string]any{
			"userId":    i,
			"firstName": fmt.Sprintf("Seller%d", i),
			"role":      role,
			"agencyId":  agencyID,
			"regionId":  regionID,
		})
	}
	// One manager per agency and per region.
	userID := sellers
	for i := 1; i <= agencyCount; i++ {
		userID++
		participants = append(participants, map[string]any{
			"userId":    userID,
			"firstName": fmt.Sprintf("Manager%d", i),
			"role":      "AGENCY_MANAGER",
			"agencyId":  i,
			"regionId":  (i % regionCount) + 1,
		})
	}
	for i := 1; i <= regionCount; i++ {
		userID++
		participants = append(participants, map[string]any{
			"userId":    userID,
			"firstName": fmt.Sprintf("Regional%d", i),
			"role":      "REGIONAL_MANAGER",
			"regionId":  i,
		})
	}

	req := map[string]any{
		"participants": participants,
		"agencies":     agencies,
		"regions":      regions,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequest(http.MethodPut, baseURL+"/challenges/"+challengeID+"/participants", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func recordTransactions(client *http.Client, baseURL, challengeID string, txCount, sellers, numWorkers int, metrics *Metrics) {
	work := make(chan int, 100)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))

			for range work {
				sellerID := rng.Intn(sellers) + 1
				role := "AGENT"
				if sellerID%2 == 0 {
					role = "COMMERCIAL"
				}
				tx := map[string]any{
					"premium":           float64(rng.Intn(200000)) / 100.0,
					"contractType":      contractTypes[rng.Intn(len(contractTypes))],
					"transactionNature": "NEW_BUSINESS",
					"sellerId":          sellerID,
					"sellerRole":        role,
				}

				start := time.Now()
				err := postJSON(client, baseURL+"/challenges/"+challengeID+"/transactions", tx, nil)
				atomic.AddInt64(&metrics.TxTimeMs, time.Since(start).Milliseconds())
				atomic.AddInt64(&metrics.TxSent, 1)
				if err != nil {
					atomic.AddInt64(&metrics.TxErrors, 1)
				}
			}
		}()
	}

	for i := 0; i < txCount; i++ {
		work <- i
	}
	close(work)
	wg.Wait()
}

func runEvaluations(client *http.Client, baseURL, challengeID string, count int, metrics *Metrics) {
	for i := 0; i < count; i++ {
		start := time.Now()

		var run struct {
			Winners []json.RawMessage `json:"winners"`
		}
		err := postJSON(client, baseURL+"/challenges/"+challengeID+"/evaluate", map[string]any{}, &run)
		atomic.AddInt64(&metrics.EvalTimeMs, time.Since(start).Milliseconds())
		atomic.AddInt64(&metrics.EvalRuns, 1)
		if err != nil {
			atomic.AddInt64(&metrics.EvalErrors, 1)
			continue
		}
		atomic.AddInt64(&metrics.EvalWinners, int64(len(run.Winners)))
	}
}

func postJSON(client *http.Client, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func printResults(m *Metrics, ingestDuration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 INGEST\n")
	fmt.Printf("   Transactions:    %d\n", m.TxSent)
	fmt.Printf("   Errors:          %d\n", m.TxErrors)
	fmt.Printf("   Duration:        %v\n", ingestDuration.Round(time.Millisecond))
	if m.TxSent > 0 {
		fmt.Printf("   Avg Latency:     %.2f ms\n", float64(m.TxTimeMs)/float64(m.TxSent))
		fmt.Printf("   Throughput:      %.2f tx/sec\n", float64(m.TxSent)/ingestDuration.Seconds())
	}

	fmt.Printf("\n⏱️  EVALUATION\n")
	fmt.Printf("   Runs:            %d\n", m.EvalRuns)
	fmt.Printf("   Errors:          %d\n", m.EvalErrors)
	if m.EvalRuns > 0 {
		fmt.Printf("   Avg Latency:     %.2f ms\n", float64(m.EvalTimeMs)/float64(m.EvalRuns))
		fmt.Printf("   Avg Winners:     %.1f\n", float64(m.EvalWinners)/float64(m.EvalRuns))
	}
	fmt.Println()
}
