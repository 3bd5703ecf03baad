package reflection

// CallInfo describes the function a Registry.Call dispatches to.
type CallInfo struct {
	// Name is the qualified name the caller used, e.g. "mge::math::dot".
	Name     string
	Function *FunctionDetails
}

// Interceptor wraps a call made through Registry.Call.
//
//	func timing(info *reflection.CallInfo, ctx reflection.CallContext, next reflection.Invoker) {
//	    start := time.Now()
//	    next.Invoke(ctx)
//	    slog.Debug("call", "name", info.Name, "took", time.Since(start))
//	}
//
// An interceptor may inspect or replace the call context handed to next,
// or short-circuit by reporting an error through ctx.ExceptionThrown
// without calling next.
type Interceptor func(info *CallInfo, ctx CallContext, next Invoker)

// WithInterceptor adds an interceptor for Registry.Call.
// Interceptors execute in the order they were added; the first one added
// is the outermost.
func (r *Registry) WithInterceptor(i Interceptor) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interceptors = append(r.interceptors, i)
	return r
}

// Call resolves the qualified function name and invokes it with ctx
// through the interceptor chain. Failures of the function itself are
// reported through ctx; the returned error only covers resolution.
func (r *Registry) Call(qualified string, ctx CallContext) error {
	f, err := r.LookupFunction(qualified)
	if err != nil {
		return err
	}
	r.mu.RLock()
	interceptors := r.interceptors
	r.mu.RUnlock()

	info := &CallInfo{Name: qualified, Function: f}
	chainInterceptors(interceptors, info, f.invoker).Invoke(ctx)
	return nil
}

// chainInterceptors wraps final so that interceptors[0] runs first.
func chainInterceptors(interceptors []Interceptor, info *CallInfo, final Invoker) Invoker {
	chain := final
	for i := len(interceptors) - 1; i >= 0; i-- {
		current := interceptors[i]
		next := chain
		chain = InvokerFunc(func(ctx CallContext) {
			current(info, ctx, next)
		})
	}
	return chain
}
