// Package drivertest provides an in-memory gfx/driver implementation that
// accounts for every native object it hands out.
package drivertest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// Kind names a class of native object.
type Kind string

const (
	KindInstance       Kind = "instance"
	KindDebugMessenger Kind = "debug_messenger"
	KindSurface        Kind = "surface"
	KindDevice         Kind = "device"
	KindCommandPool    Kind = "command_pool"
	KindCommandBuffer  Kind = "command_buffer"
	KindBuffer         Kind = "buffer"
	KindImage          Kind = "image"
	KindMemory         Kind = "memory"
	KindShaderModule   Kind = "shader_module"
	KindPipelineLayout Kind = "pipeline_layout"
	KindRenderPass     Kind = "render_pass"
	KindPipeline       Kind = "pipeline"
)

var allKinds = []Kind{
	KindInstance, KindDebugMessenger, KindSurface, KindDevice, KindCommandPool,
	KindCommandBuffer, KindBuffer, KindImage, KindMemory, KindShaderModule,
	KindPipelineLayout, KindRenderPass, KindPipeline,
}

// Op names a fallible driver call that tests can make fail.
type Op string

const (
	OpAvailableLayers        Op = "AvailableLayers"
	OpAvailableExtensions    Op = "AvailableExtensions"
	OpCreateInstance         Op = "CreateInstance"
	OpEnumerateDevices       Op = "EnumeratePhysicalDevices"
	OpCreateDebugMessenger   Op = "CreateDebugMessenger"
	OpCreateSurface          Op = "CreateSurface"
	OpCreateDevice           Op = "CreateDevice"
	OpCreateCommandPool      Op = "CreateCommandPool"
	OpAllocateCommandBuffers Op = "AllocateCommandBuffers"
	OpBegin                  Op = "Begin"
	OpEnd                    Op = "End"
	OpSubmit                 Op = "Submit"
	OpQueueWaitIdle          Op = "QueueWaitIdle"
	OpCreateBuffer           Op = "CreateBuffer"
	OpCreateImage            Op = "CreateImage"
	OpAllocateMemory         Op = "AllocateMemory"
	OpBindMemory             Op = "BindMemory"
	OpMapMemory              Op = "MapMemory"
	OpCreateShaderModule     Op = "CreateShaderModule"
	OpCreatePipelineLayout   Op = "CreatePipelineLayout"
	OpCreateRenderPass       Op = "CreateRenderPass"
	OpCreatePipeline         Op = "CreateGraphicsPipeline"
)

// ErrInjected is returned by calls failed through Fail or FailTimes.
var ErrInjected = errors.New("injected driver failure")

type failure struct {
	remaining int
	err       error
}

// Recorder is shared by every fake object created from one Loader.
type Recorder struct {
	mu             sync.Mutex
	created        map[Kind]int
	destroyed      map[Kind]int
	doubleDestroys int
	failures       map[Op]*failure
	calls          map[Op]int
	events         []string
}

func NewRecorder() *Recorder {
	return &Recorder{
		created:   make(map[Kind]int),
		destroyed: make(map[Kind]int),
		failures:  make(map[Op]*failure),
		calls:     make(map[Op]int),
	}
}

// Fail makes every future call of op fail.
func (r *Recorder) Fail(op Op) {
	r.FailTimes(op, -1)
}

// FailTimes makes the next n calls of op fail. A negative n fails forever.
func (r *Recorder) FailTimes(op Op, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[op] = &failure{remaining: n, err: errors.Wrapf(ErrInjected, "%s", op)}
}

// Clear removes any failure registered for op.
func (r *Recorder) Clear(op Op) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.failures, op)
}

func (r *Recorder) call(op Op) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[op]++

	f, ok := r.failures[op]
	if !ok || f.remaining == 0 {
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
	}
	return f.err
}

func (r *Recorder) create(kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created[kind]++
	r.events = append(r.events, "create:"+string(kind))
}

func (r *Recorder) destroy(kind Kind, already *bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if *already {
		r.doubleDestroys++
		return
	}
	*already = true
	r.destroyed[kind]++
	r.events = append(r.events, "destroy:"+string(kind))
}

// Calls reports how many times op was invoked, failed calls included.
func (r *Recorder) Calls(op Op) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *Recorder) Created(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created[kind]
}

func (r *Recorder) Destroyed(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroyed[kind]
}

// Live is the number of objects of kind created and not yet destroyed.
func (r *Recorder) Live(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created[kind] - r.destroyed[kind]
}

// Leaks lists every kind with live objects, formatted as kind=count.
func (r *Recorder) Leaks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var leaks []string
	for _, kind := range allKinds {
		if n := r.created[kind] - r.destroyed[kind]; n != 0 {
			leaks = append(leaks, fmt.Sprintf("%s=%d", kind, n))
		}
	}
	return leaks
}

// DoubleDestroys counts Destroy or Free calls on already released objects.
func (r *Recorder) DoubleDestroys() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doubleDestroys
}

// Events returns the create/destroy log in call order.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// DestroyOrder returns the kinds in the order they were destroyed.
func (r *Recorder) DestroyOrder() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var order []Kind
	for _, event := range r.events {
		if kind, ok := strings.CutPrefix(event, "destroy:"); ok {
			order = append(order, Kind(kind))
		}
	}
	return order
}
