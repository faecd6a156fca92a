package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{} // Pipeline runs can take a while, no timeout
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	token := os.Getenv("SMOKE_TOKEN")
	submissionId := os.Getenv("SMOKE_SUBMISSION_ID")
	guideId := os.Getenv("SMOKE_GUIDE_ID")
	if token == "" || submissionId == "" || guideId == "" {
		color.Red("Set SMOKE_TOKEN, SMOKE_SUBMISSION_ID and SMOKE_GUIDE_ID first")
		os.Exit(1)
	}

	color.Cyan("🚀 Starting grading pipeline smoke test\n")

	// 1. Trigger an async grading run
	color.Yellow("\n[1] POST /grading/v1/process (async)")
	resp, body, err := sendRequest("POST", "/grading/v1/process", token, map[string]interface{}{
		"submission_id": submissionId,
		"guide_id":      guideId,
		"async":         true,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	var processEnvelope struct {
		Data struct {
			SessionId string `json:"session_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &processEnvelope); err != nil || processEnvelope.Data.SessionId == "" {
		color.Red("No session id in response, aborting")
		os.Exit(1)
	}
	sessionId := processEnvelope.Data.SessionId

	// 2. Poll progress until the session is terminal
	color.Yellow("\n[2] Polling GET /grading/v1/progress/%s", sessionId)
	status := ""
	for i := 0; i < 60; i++ {
		time.Sleep(2 * time.Second)
		_, body, err = sendRequest("GET", "/grading/v1/progress/"+sessionId, token, nil)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		var progressEnvelope struct {
			Data struct {
				Status     string  `json:"status"`
				Percentage float64 `json:"percentage"`
				Operation  string  `json:"current_operation"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &progressEnvelope); err != nil {
			color.Red("Bad progress payload: %v", err)
			os.Exit(1)
		}
		status = progressEnvelope.Data.Status
		fmt.Printf("  %.0f%% (%s) %s\n", progressEnvelope.Data.Percentage, status, progressEnvelope.Data.Operation)
		if status == "completed" || status == "failed" {
			break
		}
	}
	if status != "completed" {
		color.Red("Session did not complete, last status: %s", status)
		os.Exit(1)
	}

	// 3. Re-trigger synchronously; the completed session must be reused
	color.Yellow("\n[3] POST /grading/v1/process again (idempotency check)")
	resp, body, err = sendRequest("POST", "/grading/v1/process", token, map[string]interface{}{
		"submission_id": submissionId,
		"guide_id":      guideId,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	// 4. Fetch the persisted results
	color.Yellow("\n[4] GET /grading/v1/sessions/%s/results", sessionId)
	resp, body, err = sendRequest("GET", "/grading/v1/sessions/"+sessionId+"/results", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	// 5. Fetch progress history
	color.Yellow("\n[5] GET /grading/v1/progress/%s/history", sessionId)
	resp, body, err = sendRequest("GET", "/grading/v1/progress/"+sessionId+"/history", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	color.Cyan("\n✅ Smoke test finished")
}
