// Package monitoring turns a running program into a small web server that
// exposes the state of the logging runtime: live tasks, pending heartbeats,
// aggregate interval statistics, and process resource usage.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/drewcrawford/logwise"
	"github.com/drewcrawford/logwise/tracing"
)

// Monitor serves the state of the logging runtime over HTTP. It observes
// the runtime by attaching itself as a tracer, so it must be started before
// the tasks it should see are created.
type Monitor struct {
	portNumber int
	actualPort int

	mu             sync.Mutex
	liveTasks      map[uint64]tracing.Task
	completedTasks uint64
	intervals      *tracing.IntervalCountTracer
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		liveTasks: make(map[uint64]tracing.Task),
		intervals: tracing.NewIntervalCountTracer(tracing.AnyTask),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// StartTask records the task as live.
func (m *Monitor) StartTask(task tracing.Task) {
	m.mu.Lock()
	m.liveTasks[task.ID] = task
	m.mu.Unlock()

	m.intervals.StartTask(task)
}

// EndTask removes the task from the live set.
func (m *Monitor) EndTask(task tracing.Task) {
	m.mu.Lock()
	delete(m.liveTasks, task.ID)
	m.completedTasks++
	m.mu.Unlock()

	m.intervals.EndTask(task)
}

// EndInterval forwards the interval to the aggregate statistics.
func (m *Monitor) EndInterval(interval tracing.Interval) {
	m.intervals.EndInterval(interval)
}

// StartServer attaches the monitor to the logging runtime and starts
// serving. It returns the port the server listens on.
func (m *Monitor) StartServer() int {
	tracing.CollectTraces(m)

	r := mux.NewRouter()
	r.HandleFunc("/api/tasks", m.listTasks)
	r.HandleFunc("/api/task/{id}", m.taskDetails)
	r.HandleFunc("/api/heartbeats", m.listHeartbeats)
	r.HandleFunc("/api/stats", m.listStats)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	actualPort := ":0"
	if m.portNumber >= 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.actualPort = listener.Addr().(*net.TCPAddr).Port

	fmt.Fprintf(os.Stderr,
		"Monitoring logging runtime with http://localhost:%d\n",
		m.actualPort)

	go func() {
		err := http.Serve(listener, r)
		dieOnErr(err)
	}()

	return m.actualPort
}

// OpenDashboard opens the monitor in the default browser. The server must
// be started first.
func (m *Monitor) OpenDashboard() {
	if m.actualPort == 0 {
		panic("monitor server is not started")
	}

	url := fmt.Sprintf("http://localhost:%d/api/tasks", m.actualPort)
	err := browser.OpenURL(url)
	dieOnErr(err)
}

func (m *Monitor) sortedLiveTasks() []tracing.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks := make([]tracing.Task, 0, len(m.liveTasks))
	for _, task := range m.liveTasks {
		tasks = append(tasks, task)
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].ID < tasks[j].ID
	})

	return tasks
}

func (m *Monitor) listTasks(w http.ResponseWriter, _ *http.Request) {
	bytes, err := json.Marshal(m.sortedLiveTasks())
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) taskDetails(w http.ResponseWriter, r *http.Request) {
	idString := mux.Vars(r)["id"]

	id, err := strconv.ParseUint(idString, 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Invalid task ID: %s", idString)
		return
	}

	m.mu.Lock()
	task, ok := m.liveTasks[id]
	m.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Task not found"))
		dieOnErr(err)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(task)
	serializer.SetMaxDepth(2)
	err = serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) listHeartbeats(w http.ResponseWriter, _ *http.Request) {
	heartbeats := logwise.HeartbeatSnapshot()

	sort.Slice(heartbeats, func(i, j int) bool {
		return heartbeats[i].ID < heartbeats[j].ID
	})

	bytes, err := json.Marshal(heartbeats)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type intervalStatRsp struct {
	Label     string `json:"label"`
	Count     uint64 `json:"count"`
	TotalTime string `json:"total_time"`
}

type statsRsp struct {
	LiveTasks      int               `json:"live_tasks"`
	CompletedTasks uint64            `json:"completed_tasks"`
	Intervals      []intervalStatRsp `json:"intervals"`
}

func (m *Monitor) listStats(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	rsp := statsRsp{
		LiveTasks:      len(m.liveTasks),
		CompletedTasks: m.completedTasks,
	}
	m.mu.Unlock()

	for _, label := range m.intervals.Labels() {
		rsp.Intervals = append(rsp.Intervals, intervalStatRsp{
			Label:     label,
			Count:     m.intervals.Count(label),
			TotalTime: m.intervals.TotalTime(label).String(),
		})
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
