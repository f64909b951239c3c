package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
)

// 支付状态常量
const (
	StateIdle       = "idle"
	StateProcessing = "processing"
	StateSucceeded  = "succeeded"
	StateCancelled  = "cancelled"
	StateFailed     = "failed"
)

// 事件常量
const (
	EventCheckout = "checkout" // 打开支付网关收银台
	EventDemo     = "demo"     // 演示支付
	EventSucceed  = "succeed"
	EventFail     = "fail"
	EventDismiss  = "dismiss" // 用户关闭收银台
	EventExpire   = "expire"  // 草稿超时未支付
)

// ErrTransition 当前状态不允许该事件
var ErrTransition = errors.New("payment: transition not allowed")

// IsTerminal 是否为终态
func IsTerminal(s string) bool {
	return s == StateSucceeded || s == StateCancelled || s == StateFailed
}

// PaymentState 支付状态快照
type PaymentState struct {
	BookingID    string    `json:"booking_id"`
	CurrentState string    `json:"state"`
	Since        time.Time `json:"since"`
}

// Machine 单个预约的支付状态机
type Machine struct {
	mu            sync.RWMutex
	bookingID     string
	fsm           *fsm.FSM
	since         time.Time
	onStateChange func(bookingID, from, to string)
}

// NewMachine 创建状态机
func NewMachine(bookingID, initialState string, onStateChange func(bookingID, from, to string)) *Machine {
	if initialState == "" {
		initialState = StateIdle
	}

	m := &Machine{
		bookingID:     bookingID,
		since:         time.Now(),
		onStateChange: onStateChange,
	}

	m.fsm = fsm.NewFSM(
		initialState,
		fsm.Events{
			// 从 idle 状态：两条支付路径
			{Name: EventCheckout, Src: []string{StateIdle}, Dst: StateProcessing},
			{Name: EventDemo, Src: []string{StateIdle}, Dst: StateProcessing},
			{Name: EventExpire, Src: []string{StateIdle}, Dst: StateCancelled},

			// 从 processing 状态
			{Name: EventSucceed, Src: []string{StateProcessing}, Dst: StateSucceeded},
			{Name: EventFail, Src: []string{StateProcessing}, Dst: StateFailed},
			{Name: EventDismiss, Src: []string{StateProcessing}, Dst: StateCancelled},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if m.onStateChange != nil && e.Src != e.Dst {
					m.onStateChange(m.bookingID, e.Src, e.Dst)
				}
			},
		},
	)

	return m
}

// CurrentState 获取当前状态
func (m *Machine) CurrentState() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Current()
}

// GetState 获取状态快照
func (m *Machine) GetState() *PaymentState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &PaymentState{
		BookingID:    m.bookingID,
		CurrentState: m.fsm.Current(),
		Since:        m.since,
	}
}

// Trigger 触发事件
func (m *Machine) Trigger(ctx context.Context, event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.fsm.Can(event) {
		return fmt.Errorf("%w: %s from %s", ErrTransition, event, m.fsm.Current())
	}
	if err := m.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("trigger event %s: %w", event, err)
	}

	m.since = time.Now()
	return nil
}

// CanTransition 检查是否可以转换
func (m *Machine) CanTransition(event string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Can(event)
}

// Manager 状态机管理器
type Manager struct {
	mu       sync.RWMutex
	machines map[string]*Machine
	onChange func(bookingID, from, to string)
}

// NewManager 创建管理器
func NewManager(onChange func(bookingID, from, to string)) *Manager {
	return &Manager{
		machines: make(map[string]*Machine),
		onChange: onChange,
	}
}

// GetOrCreate 获取或创建状态机（重启后按存储的状态恢复）
func (m *Manager) GetOrCreate(bookingID, initialState string) *Machine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if machine, ok := m.machines[bookingID]; ok {
		return machine
	}

	machine := NewMachine(bookingID, initialState, m.onChange)
	m.machines[bookingID] = machine
	return machine
}

// Get 获取状态机
func (m *Manager) Get(bookingID string) (*Machine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	machine, ok := m.machines[bookingID]
	return machine, ok
}

// Remove 移除已进入终态的状态机
func (m *Manager) Remove(bookingID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.machines, bookingID)
}

// GetAllStates 获取所有支付状态
func (m *Manager) GetAllStates() map[string]*PaymentState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make(map[string]*PaymentState)
	for id, machine := range m.machines {
		states[id] = machine.GetState()
	}
	return states
}
