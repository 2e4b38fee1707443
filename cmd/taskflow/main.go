package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"golang.org/x/term"
)

var (
	app    = kingpin.New("taskflow", "Task management from the terminal")
	server = app.Flag("server", "TaskFlow server URL").Default("http://localhost:3200").Envar("TASKFLOW_SERVER").String()

	loginCmd  = app.Command("login", "Log in and store a session token")
	loginUser = loginCmd.Arg("username", "Username").Required().String()

	logoutCmd = app.Command("logout", "Drop the stored session token")

	listCmd      = app.Command("list", "List your tasks")
	listStatus   = listCmd.Flag("status", "Filter by status (todo, in_progress, done)").String()
	listPriority = listCmd.Flag("priority", "Filter by priority (low, mid, high)").String()
	listQuery    = listCmd.Flag("search", "Title search").Short('s').String()

	createCmd      = app.Command("create", "Create a task")
	createTitle    = createCmd.Arg("title", "Task title").Required().String()
	createDesc     = createCmd.Flag("description", "Task description").String()
	createPriority = createCmd.Flag("priority", "Priority (low, mid, high)").Default("mid").String()
	createDue      = createCmd.Flag("due", "Due date (YYYY-MM-DD)").String()

	completeCmd = app.Command("complete", "Mark a task as done")
	completeID  = completeCmd.Arg("id", "Task ID").Required().String()

	showCmd = app.Command("show", "Show task details")
	showID  = showCmd.Arg("id", "Task ID").Required().String()

	dashboardCmd = app.Command("dashboard", "Show your dashboard summary")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	var err error
	switch command {
	case loginCmd.FullCommand():
		err = handleLogin(*loginUser)
	case logoutCmd.FullCommand():
		err = handleLogout()
	case listCmd.FullCommand():
		err = handleList(*listStatus, *listPriority, *listQuery)
	case createCmd.FullCommand():
		err = handleCreate(*createTitle, *createDesc, *createPriority, *createDue)
	case completeCmd.FullCommand():
		err = handleComplete(*completeID)
	case showCmd.FullCommand():
		err = handleShow(*showID)
	case dashboardCmd.FullCommand():
		err = handleDashboard()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func sessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskflow-session"
	}
	return filepath.Join(home, ".taskflow", "session")
}

func loadToken() string {
	data, err := os.ReadFile(sessionPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveToken(token string) error {
	path := sessionPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

type apiError struct {
	OK      *bool             `json:"ok"`
	Success *bool             `json:"success"`
	Code    string            `json:"code"`
	Message string            `json:"error"`
	Errors  map[string]string `json:"errors"`
}

func call(method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(method, *server+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := loadToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
			if len(apiErr.Errors) > 0 {
				var parts []string
				for field, msg := range apiErr.Errors {
					parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
				}
				return fmt.Errorf("%s", strings.Join(parts, "; "))
			}
			if apiErr.Message != "" {
				return fmt.Errorf("%s", apiErr.Message)
			}
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func handleLogin(username string) error {
	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := call(http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp); err != nil {
		return err
	}
	if err := saveToken(resp.Token); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", resp.User.Username)
	return nil
}

func handleLogout() error {
	_ = call(http.MethodPost, "/api/auth/logout", nil, nil)
	if err := os.Remove(sessionPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

type taskView struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"due_date"`
	CompletedAt *string `json:"completed_at"`
	CreatedAt   string  `json:"created_at"`
}

var (
	statusColors = map[string]*color.Color{
		"todo":        color.New(color.FgYellow),
		"in_progress": color.New(color.FgCyan),
		"done":        color.New(color.FgGreen),
	}
	priorityColors = map[string]*color.Color{
		"low":  color.New(color.FgHiBlack),
		"mid":  color.New(color.FgWhite),
		"high": color.New(color.FgRed, color.Bold),
	}
)

func paint(colors map[string]*color.Color, value string) string {
	if c, ok := colors[value]; ok {
		return c.Sprint(value)
	}
	return value
}

func printTaskLine(t *taskView) {
	due := "-"
	if t.DueDate != nil {
		due = *t.DueDate
	}
	fmt.Printf("%s  %-11s  %-4s  %-10s  %s\n",
		t.ID, paint(statusColors, t.Status), paint(priorityColors, t.Priority), due, t.Title)
}

func handleList(status, priority, search string) error {
	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}
	if priority != "" {
		params.Set("priority", priority)
	}
	if search != "" {
		params.Set("q", search)
	}
	query := ""
	if len(params) > 0 {
		query = "?" + params.Encode()
	}

	var resp struct {
		Tasks []*taskView `json:"tasks"`
		Count int         `json:"count"`
	}
	if err := call(http.MethodGet, "/api/tasks"+query, nil, &resp); err != nil {
		return err
	}
	for _, t := range resp.Tasks {
		printTaskLine(t)
	}
	fmt.Printf("%d task(s)\n", resp.Count)
	return nil
}

func handleCreate(title, description, priority, due string) error {
	body := map[string]string{
		"title":    title,
		"priority": priority,
	}
	if description != "" {
		body["description"] = description
	}
	if due != "" {
		body["due_date"] = due
	}

	var resp struct {
		Task *taskView `json:"task"`
	}
	if err := call(http.MethodPost, "/api/tasks", body, &resp); err != nil {
		return err
	}
	fmt.Printf("Created %s\n", resp.Task.ID)
	return nil
}

func handleComplete(id string) error {
	var resp struct {
		Task *taskView `json:"task"`
	}
	if err := call(http.MethodPost, "/api/tasks/"+id+"/complete", nil, &resp); err != nil {
		return err
	}
	fmt.Printf("Completed %s: %s\n", resp.Task.ID, resp.Task.Title)
	return nil
}

func handleShow(id string) error {
	var resp struct {
		Task *taskView `json:"task"`
	}
	if err := call(http.MethodGet, "/api/tasks/"+id, nil, &resp); err != nil {
		return err
	}
	t := resp.Task

	fmt.Printf("ID:        %s\n", t.ID)
	fmt.Printf("Title:     %s\n", t.Title)
	fmt.Printf("Status:    %s\n", paint(statusColors, t.Status))
	fmt.Printf("Priority:  %s\n", paint(priorityColors, t.Priority))
	if t.DueDate != nil {
		fmt.Printf("Due:       %s\n", *t.DueDate)
	}
	if t.CompletedAt != nil {
		fmt.Printf("Completed: %s\n", *t.CompletedAt)
	}
	fmt.Printf("Created:   %s\n", t.CreatedAt)
	if t.Description != "" {
		fmt.Printf("\n%s\n", t.Description)
	}
	return nil
}

func handleDashboard() error {
	var resp struct {
		Username string      `json:"username"`
		Tasks    []*taskView `json:"tasks"`
		Stats    struct {
			InProgressThisWeek int `json:"in_progress_this_week"`
			CompletedThisWeek  int `json:"completed_this_week"`
			UrgentToday        int `json:"urgent_today"`
		} `json:"stats"`
	}
	if err := call(http.MethodGet, "/api/dashboard", nil, &resp); err != nil {
		return err
	}

	bold := color.New(color.Bold)
	bold.Printf("Dashboard for %s\n", resp.Username)
	fmt.Printf("  In progress this week: %d\n", resp.Stats.InProgressThisWeek)
	fmt.Printf("  Completed this week:   %d\n", resp.Stats.CompletedThisWeek)
	fmt.Printf("  Urgent today:          %d\n\n", resp.Stats.UrgentToday)
	for _, t := range resp.Tasks {
		printTaskLine(t)
	}
	return nil
}
