package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// serverURL points the client commands (status, trade, close, trading) at a
// running `fxbot serve` instance.
var serverURL string

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:5000", "base URL of a running fxbot server")
}

func apiClient() *resty.Client {
	return resty.New().
		SetBaseURL(serverURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")
}

// call performs one API request and pretty-prints the JSON reply.
func call(method, path string, body any) error {
	req := apiClient().R()
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	var pretty any
	if err := json.Unmarshal(resp.Body(), &pretty); err != nil {
		fmt.Println(string(resp.Body()))
		return nil
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))

	if resp.IsError() {
		return fmt.Errorf("server returned %s", resp.Status())
	}
	return nil
}
