// Package luasched is the core scheduler of an async runtime that embeds a
// cooperative-coroutine scripting VM (see package luavm) into a host
// process driven by asynchronous I/O. It multiplexes many script-language
// coroutines over a single-threaded cooperative executor, interleaving
// their resumptions with host-side futures the script spawns.
//
// # Architecture
//
// A [Runtime] owns two FIFO [ThreadQueue] instances (Spawn and Defer), a
// [FuturesQueue] of thread-local host futures, a [ResultMap] tracking
// per-coroutine outcomes, an optional [ErrorCallback], and an exit slot.
// [Runtime.Run] drives a tick loop that, on every wake, serves in priority
// order: exit requests, the Spawn queue, the Defer queue, and the futures
// queue.
//
// Scripts observe this machinery through five published operations — spawn,
// defer, cancel, resume, wrap — installed via [Runtime.PublishScriptAPI];
// `exit` is composed at the VM-binding layer from [Runtime.Exit] plus a
// coroutine.yield, since only VM code can suspend the calling coroutine
// atomically. Hosts observe it through [Runtime.PushThreadFront],
// [Runtime.PushThreadBack], [Runtime.GetThreadResult],
// [Runtime.WaitForThread], and a [Handle]-based submission API ([Runtime.Submit])
// for higher-level embedding.
//
// # Diagnostics
//
// [Runtime.Stats] reports always-on tick/resume/completion counters;
// [Runtime.RecentErrors] retains a bounded history of uncaught coroutine
// errors independent of any installed [ErrorCallback]; [Runtime.Collectors]
// exposes an optional Prometheus collector set when metrics are enabled via
// [WithMetrics]. [Runtime.CurrentCoroutine] lets VM-binding code (such as a
// host-async sleep) discover which coroutine is presently executing, for
// composing new host functions that must resume it later.
//
// # Thread safety
//
// Only [Runtime.Run]'s goroutine ever touches the VM. Queues, the result
// map, and the exit slot are safe to push/read from any goroutine; only
// that one goroutine drains them.
//
// # Usage
//
//	rt, err := luasched.New(vm)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := rt.PublishScriptAPI(); err != nil {
//	    log.Fatal(err)
//	}
//	id, err := rt.PushThreadFront(mainFn, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := rt.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	result, _ := rt.GetThreadResult(id)
package luasched
