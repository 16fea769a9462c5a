package browser

// registryJS installs the handle registry. Elements are kept in a Map keyed by
// handle, so querying never writes attributes into the page's DOM.
const registryJS = `(function(){
	if (!window.__monkey) {
		window.__monkey = {seq: 0, byId: new Map(), ids: new WeakMap()};
	}
	return window.__monkey;
})()`

// queryScript runs one locator and snapshots every matched element.
// Arguments: strategy ("css" | "xpath"), expression.
const queryScript = `(function(strategy, expr){
	var reg = ` + registryJS + `;
	var nodes = [];
	if (strategy === 'xpath') {
		var snap = document.evaluate(expr, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		for (var i = 0; i < snap.snapshotLength; i++) { nodes.push(snap.snapshotItem(i)); }
	} else {
		nodes = Array.prototype.slice.call(document.querySelectorAll(expr));
	}
	var out = [];
	for (var j = 0; j < nodes.length && out.length < 500; j++) {
		var el = nodes[j];
		if (!(el instanceof Element)) { continue; }
		var id = reg.ids.get(el);
		if (!id) {
			id = 'm' + (++reg.seq);
			reg.ids.set(el, id);
			reg.byId.set(id, el);
		}
		var r = el.getBoundingClientRect();
		var st = window.getComputedStyle(el);
		var visible = r.width > 0 && r.height > 0 && st.visibility !== 'hidden' &&
			st.display !== 'none' && parseFloat(st.opacity || '1') > 0;
		var enabled = !el.disabled && el.getAttribute('aria-disabled') !== 'true';
		var attrs = {};
		for (var k = 0; k < el.attributes.length; k++) {
			attrs[el.attributes[k].name] = el.attributes[k].value.slice(0, 200);
		}
		out.push({
			handle: id,
			tag: el.tagName.toLowerCase(),
			attributes: attrs,
			text: ((el.innerText || el.value || '') + '').trim().slice(0, 80),
			x: r.left + window.scrollX,
			y: r.top + window.scrollY,
			width: r.width,
			height: r.height,
			visible: visible,
			enabled: enabled
		});
	}
	return out;
})(%s, %s)`

// resolveJS evaluates to the element behind a handle, or null. Arguments: handle.
const resolveJS = `(function(h){
	var reg = window.__monkey;
	if (!reg) { return null; }
	var el = reg.byId.get(h);
	if (!el || !el.isConnected) { return null; }
	return el;
})(%s)`

// clickPointScript returns the viewport centre of an element and whether
// something else would receive a click there. Arguments: handle.
const clickPointScript = `(function(el){
	if (!el) { return {found: false}; }
	var r = el.getBoundingClientRect();
	if (r.bottom < 0 || r.top > window.innerHeight || r.right < 0 || r.left > window.innerWidth) {
		el.scrollIntoView({block: 'center', inline: 'center'});
		r = el.getBoundingClientRect();
	}
	var x = r.left + r.width / 2, y = r.top + r.height / 2;
	var top = document.elementFromPoint(x, y);
	var covered = !!top && top !== el && !el.contains(top) && !top.contains(el);
	var cover = '';
	if (covered) {
		cover = top.tagName.toLowerCase() + (top.id ? '#' + top.id : '') +
			(typeof top.className === 'string' && top.className ? '.' + top.className.trim().split(/\s+/).join('.') : '');
	}
	return {found: true, x: x, y: y, covered: covered, cover: cover};
})(%s)`

// elementActionScript runs a snippet with the resolved element bound to el.
// Arguments: handle, snippet. Evaluates to false when the handle is stale.
const elementActionScript = `(function(el){
	if (!el) { return false; }
	%s
	return true;
})(%s)`

const (
	scriptClickSnippet = `el.click();`
	scrollIntoViewSnippet = `el.scrollIntoView({block: 'center', inline: 'center'});`
	focusSnippet = `el.focus();`
	// clearSnippet uses the native value setter so framework-controlled inputs see the change.
	clearSnippet = `el.focus();
	if ('value' in el) {
		var proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
		var setter = Object.getOwnPropertyDescriptor(proto, 'value');
		if (setter && setter.set) { setter.set.call(el, ''); } else { el.value = ''; }
	} else if (el.isContentEditable) {
		el.textContent = '';
	}
	el.dispatchEvent(new Event('input', {bubbles: true}));
	el.dispatchEvent(new Event('change', {bubbles: true}));`
)

// centerScript evaluates to the viewport centre of a handle. Arguments: handle.
const centerScript = `(function(el){
	if (!el) { return {found: false}; }
	var r = el.getBoundingClientRect();
	return {found: true, x: r.left + r.width / 2, y: r.top + r.height / 2};
})(%s)`

// blurActiveScript moves keyboard focus back to the body before a key press.
const blurActiveScript = `(function(){
	var a = document.activeElement;
	if (a && a !== document.body && typeof a.blur === 'function') { a.blur(); }
	return true;
})()`
