// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fib

import (
	"context"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Gate releases a fixed set of goroutines at the same instant.
//
// Participants call Arrive and spin until the single opener calls Open.
// The opener can wait for every participant with AwaitArrivals first, so
// no participant is still being scheduled when the clock starts.
type Gate struct {
	arrived atomix.Int64
	open    atomix.Bool
}

// Arrive registers the caller and spins until the gate opens or ctx ends.
func (g *Gate) Arrive(ctx context.Context) error {
	g.arrived.Add(1)
	sw := spin.Wait{}
	for !g.open.LoadAcquire() {
		if err := ctx.Err(); err != nil {
			return err
		}
		sw.Once()
	}
	return nil
}

// AwaitArrivals spins until n participants have arrived or ctx ends.
func (g *Gate) AwaitArrivals(ctx context.Context, n int) error {
	sw := spin.Wait{}
	for g.arrived.Load() < int64(n) {
		if err := ctx.Err(); err != nil {
			return err
		}
		sw.Once()
	}
	return nil
}

// Open releases every current and future participant.
func (g *Gate) Open() {
	g.open.StoreRelease(true)
}
