//	mockgen -source=internal/usecase/interfaces.go -destination=internal/usecase/mocks/mock_interfaces.go -package=mocks
//

// Package mocks is a generated GoMock package.
package mocks

import (
	context "context"
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"
)

// MockAuditEmitter is a mock of AuditEmitter interface.
type MockAuditEmitter struct {
	ctrl     *gomock.Controller
	recorder *MockAuditEmitterMockRecorder
	isgomock struct{}
}

// MockAuditEmitterMockRecorder is the mock recorder for MockAuditEmitter.
type MockAuditEmitterMockRecorder struct {
	mock *MockAuditEmitter
}

// NewMockAuditEmitter creates a new mock instance.
func NewMockAuditEmitter(ctrl *gomock.Controller) *MockAuditEmitter {
	mock := &MockAuditEmitter{ctrl: ctrl}
	mock.recorder = &MockAuditEmitterMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockAuditEmitter) EXPECT() *MockAuditEmitterMockRecorder {
	return m.recorder
}

// Emit mocks base method.
func (m *MockAuditEmitter) Emit(ctx context.Context, actorCustomerID, action, details string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Emit", ctx, actorCustomerID, action, details)
	ret0, _ := ret[0].(error)
	return ret0
}

// Emit indicates an expected call of Emit.
func (mr *MockAuditEmitterMockRecorder) Emit(ctx, actorCustomerID, action, details any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Emit", reflect.TypeOf((*MockAuditEmitter)(nil).Emit), ctx, actorCustomerID, action, details)
}

// MockIBANGenerator is a mock of IBANGenerator interface.
type MockIBANGenerator struct {
	ctrl     *gomock.Controller
	recorder *MockIBANGeneratorMockRecorder
	isgomock struct{}
}

// MockIBANGeneratorMockRecorder is the mock recorder for MockIBANGenerator.
type MockIBANGeneratorMockRecorder struct {
	mock *MockIBANGenerator
}

// NewMockIBANGenerator creates a new mock instance.
func NewMockIBANGenerator(ctrl *gomock.Controller) *MockIBANGenerator {
	mock := &MockIBANGenerator{ctrl: ctrl}
	mock.recorder = &MockIBANGeneratorMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockIBANGenerator) EXPECT() *MockIBANGeneratorMockRecorder {
	return m.recorder
}

// Generate mocks base method.
func (m *MockIBANGenerator) Generate() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Generate")
	ret0, _ := ret[0].(string)
	return ret0
}

// Generate indicates an expected call of Generate.
func (mr *MockIBANGeneratorMockRecorder) Generate() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Generate", reflect.TypeOf((*MockIBANGenerator)(nil).Generate))
}
