package renderer

import "github.com/go-rod/rod"

// overlayJS removes consent banners and full-screen modal layers, then
// restores page scrolling. Sticky quote headers have low z-index and survive.
const overlayJS = `() => {
	let removed = 0;
	for (const el of document.querySelectorAll('body *')) {
		const style = window.getComputedStyle(el);
		if (style.position !== 'fixed') continue;
		const z = parseInt(style.zIndex, 10);
		if (z >= 900 && el.offsetWidth * el.offsetHeight > window.innerWidth * window.innerHeight * 0.3) {
			el.remove();
			removed++;
		}
	}
	const selectors = [
		'[class*="cookie"]', '[id*="cookie"]',
		'[class*="consent"]', '[id*="consent"]',
		'[class*="gdpr"]', '[id*="gdpr"]',
		'[class*="modal-backdrop"]',
	];
	for (const sel of selectors) {
		document.querySelectorAll(sel).forEach(el => {
			const pos = window.getComputedStyle(el).position;
			if (pos === 'fixed' || pos === 'sticky' || pos === 'absolute') {
				el.remove();
				removed++;
			}
		});
	}
	document.documentElement.style.overflow = '';
	if (document.body) document.body.style.overflow = '';
	return removed;
}`

// removeOverlays runs overlayJS and reports how many elements it dropped.
// Failures are ignored; the page is usable either way.
func removeOverlays(p *rod.Page) int {
	res, err := p.Eval(overlayJS)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}
