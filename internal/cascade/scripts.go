package cascade

import (
	"context"

	"github.com/xkilldash9x/monkey-cli/internal/browser"
)

// obstructionProbeScript reports whether a visible modal-like element or a
// fixed overlay covering most of the viewport is present.
const obstructionProbeScript = `(() => {
  const visible = (el) => {
    const style = window.getComputedStyle(el);
    if (style.display === 'none' || style.visibility === 'hidden' || parseFloat(style.opacity) === 0) return false;
    const r = el.getBoundingClientRect();
    return r.width > 0 && r.height > 0;
  };
  const modals = document.querySelectorAll('[role="dialog"], [role="alertdialog"], [aria-modal="true"], dialog[open], .modal.show, .modal.in, .popup');
  for (const el of modals) {
    if (visible(el)) return true;
  }
  const vw = window.innerWidth, vh = window.innerHeight;
  for (const el of document.querySelectorAll('body *')) {
    const style = window.getComputedStyle(el);
    if (style.position !== 'fixed') continue;
    const z = parseInt(style.zIndex, 10);
    if (!(z > 100) || !visible(el)) continue;
    const r = el.getBoundingClientRect();
    if (r.width * r.height >= 0.5 * vw * vh) return true;
  }
  return false;
})()`

// forceCleanupScript removes modal containers and high z-index overlays,
// clears body scroll locks and evaluates to the number of removed nodes.
const forceCleanupScript = `(() => {
  let removed = 0;
  document.querySelectorAll('[role="dialog"], .modal, .popup, [class*="modal"], [id*="modal"]').forEach((el) => {
    if (el === document.body || el === document.documentElement) return;
    el.remove();
    removed++;
  });
  document.querySelectorAll('body *').forEach((el) => {
    const style = window.getComputedStyle(el);
    if ((style.position === 'fixed' || style.position === 'absolute') && parseInt(style.zIndex, 10) > 100) {
      el.remove();
      removed++;
    }
  });
  if (document.body) {
    document.body.classList.remove('modal-open');
    document.body.style.overflow = '';
  }
  document.documentElement.style.overflow = '';
  return removed;
})()`

func probeObstruction(ctx context.Context, page browser.Page) (bool, error) {
	var found bool
	if err := page.Evaluate(ctx, obstructionProbeScript, &found); err != nil {
		return false, err
	}
	return found, nil
}
