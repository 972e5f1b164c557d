// Package providers wraps raw completion executors with per-model admission
// control.
//
// An Executor is the opaque upstream boundary: it takes a model name and a
// request payload and returns completion text or a typed error. The Provider
// decorator pairs one executor with one credential and consults a per-model
// quota tracker before every call, so a credential can never locally exceed
// its configured request limits.
//
// The package also defines the error taxonomy shared by the routing layer:
// local admission denials, upstream rate-limit rejections, and missing quota
// configuration are all distinct, matchable conditions.
package providers
