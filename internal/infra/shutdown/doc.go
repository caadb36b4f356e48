// Package shutdown coordinates graceful shutdown for tlsrest.
//
// A Controller owns the root context of the server. The context is
// cancelled exactly once, either by SIGINT or by an explicit Trigger call
// from inside the server (the remote stop command). The first reason wins
// and is reported by Reason, which main uses to choose the exit code.
//
// Usage:
//
//	c := shutdown.NewController(context.Background(), 10*time.Second)
//	stop := c.NotifySignals()
//	defer stop()
//	c.OnShutdown(func(ctx context.Context) error { return srv.Close() })
//	err := srv.Run(c.Context())
//	_ = c.Shutdown()
package shutdown
