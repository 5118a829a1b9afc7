// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package kb

import (
	"go.uber.org/zap"

	"github.com/go-air/sroiq/kb/metrics"
)

// Option configures a KB at construction time.
type Option func(*KB)

// WithLogger installs a structured logger. The core below kb never
// imports zap directly; every other package returns typed errors and
// structured stats for kb to log.
func WithLogger(l *zap.Logger) Option {
	return func(k *KB) { k.log = l }
}

// WithMetrics installs a metrics sink. If omitted, New creates one
// backed by prometheus.DefaultRegisterer.
func WithMetrics(m *metrics.Metrics) Option {
	return func(k *KB) { k.metrics = m }
}

// WithInterrupt shares an external cancellation flag with the KB
// instead of the one it allocates for itself, so a caller can cancel
// a long-running query from another goroutine's signal handler by
// flipping the same flag passed to multiple KB instances.
func WithInterrupt(flag *int32) Option {
	return func(k *KB) { k.interrupt = flag }
}
