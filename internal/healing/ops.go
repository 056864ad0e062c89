package healing

import "context"

// Click resolves the locator and clicks the resolved element. Driver
// errors after a successful resolution pass through unchanged.
func (r *Resolver) Click(ctx context.Context, req Request) (Outcome, error) {
	out, err := r.Resolve(ctx, req)
	if err != nil {
		return out, err
	}
	if err := req.Page.Click(ctx, out.Locator); err != nil {
		return out, err
	}
	return out, nil
}

// Fill resolves the locator and types value into the resolved element.
func (r *Resolver) Fill(ctx context.Context, req Request, value string) (Outcome, error) {
	out, err := r.Resolve(ctx, req)
	if err != nil {
		return out, err
	}
	if err := req.Page.Fill(ctx, out.Locator, value); err != nil {
		return out, err
	}
	return out, nil
}

// WaitFor resolves the locator without acting on the element.
func (r *Resolver) WaitFor(ctx context.Context, req Request) (Outcome, error) {
	return r.Resolve(ctx, req)
}

// TextContent resolves the locator and returns the element's full text
// content, including hidden nodes.
func (r *Resolver) TextContent(ctx context.Context, req Request) (string, Outcome, error) {
	out, err := r.Resolve(ctx, req)
	if err != nil {
		return "", out, err
	}
	text, err := req.Page.Text(ctx, out.Locator)
	return text, out, err
}

// InnerText resolves the locator and returns the element's rendered text.
func (r *Resolver) InnerText(ctx context.Context, req Request) (string, Outcome, error) {
	out, err := r.Resolve(ctx, req)
	if err != nil {
		return "", out, err
	}
	text, err := req.Page.InnerText(ctx, out.Locator)
	return text, out, err
}

// ExistsQuietly reports whether the locator resolves, walking the same
// fallback chain as Resolve. Resolution failure of any kind is mapped to
// false instead of an error; absence is an expected outcome here, not a
// fault.
func (r *Resolver) ExistsQuietly(ctx context.Context, req Request) bool {
	if req.Locator == "" || req.Page == nil {
		return false
	}
	out, err := r.Resolve(ctx, req)
	return err == nil && out.Resolved()
}
