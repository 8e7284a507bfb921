package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpClient has a long timeout: analysis and assist calls hold the
// connection while the model works.
var httpClient = &http.Client{Timeout: 180 * time.Second}

func postJSON(url string, body any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}
	resp, err := httpClient.Post(url, "application/json", &buf)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeResponse(resp, out)
}

func getJSON(url string, out any) error {
	resp, err := httpClient.Get(url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(data))
	}
	return json.Unmarshal(data, out)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runListProfiles(api string, w io.Writer) error {
	var out map[string]any
	if err := getJSON(api+"/api/profiles", &out); err != nil {
		return err
	}
	return printJSON(w, out)
}

func runCreateProfile(api, name, opponent, user string, w io.Writer) error {
	var out map[string]any
	err := postJSON(api+"/api/profiles", map[string]string{
		"profileName":  name,
		"opponentName": opponent,
		"userName":     user,
	}, &out)
	if err != nil {
		return err
	}
	return printJSON(w, out)
}

func runAnalyze(api, profileID string, w io.Writer) error {
	var out map[string]any
	if err := postJSON(api+"/api/profiles/"+profileID+"/analysis", map[string]string{}, &out); err != nil {
		return err
	}
	return printJSON(w, out)
}

func runAssist(api, profileID, message, thoughts string, w io.Writer) error {
	var out map[string]any
	err := postJSON(api+"/api/profiles/"+profileID+"/assist", map[string]string{
		"opponentMessage": message,
		"userThoughts":    thoughts,
	}, &out)
	if err != nil {
		return err
	}
	return printJSON(w, out)
}
