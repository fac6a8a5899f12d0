package browser

import (
	"encoding/json"
	"fmt"

	"github.com/lance13c/lpqa/internal/types"
)

// helpersJS is shared by every in-page script. It expects LEXICON and MOBILE
// to be defined by the wrapper.
const helpersJS = `
const lex = LEXICON.map(k => k.toLowerCase());
const clean = (t) => (t || '').replace(/\s+/g, ' ').trim();
const matchesLexicon = (t) => { t = (t || '').toLowerCase(); return lex.some(k => t.includes(k)); };
const visible = (el) => {
  const cs = getComputedStyle(el);
  if (cs.display === 'none' || cs.visibility === 'hidden' || parseFloat(cs.opacity) === 0) return false;
  const r = el.getBoundingClientRect();
  return r.width > 0 && r.height > 0;
};
const describe = (el) => {
  let s = el.tagName.toLowerCase();
  if (el.id) return s + '#' + el.id;
  const cls = (typeof el.className === 'string' ? el.className : '').split(/\s+/).filter(Boolean);
  if (cls.length) s += '.' + cls[0];
  return s;
};
const alphaOf = (c) => {
  const m = (c || '').match(/rgba?\(([^)]+)\)/);
  if (!m) return 1;
  const p = m[1].split(/[\s,\/]+/).filter(Boolean);
  return p.length > 3 ? parseFloat(p[3]) : 1;
};
const resolveBackground = (el) => {
  for (let n = el; n && n.nodeType === 1; n = n.parentElement) {
    const cs = getComputedStyle(n);
    if (cs.backgroundImage && cs.backgroundImage !== 'none') return { color: 'rgb(255, 255, 255)', overImage: true };
    const bg = cs.backgroundColor;
    if (bg && bg !== 'transparent' && alphaOf(bg) > 0) return { color: bg, overImage: false };
  }
  return { color: 'rgb(255, 255, 255)', overImage: false };
};
const ctaElements = () => Array.from(document.querySelectorAll('a, button, input[type=submit], input[type=button], [role=button]'))
  .filter(visible)
  .filter(el => {
    const t = clean(el.innerText || el.value);
    if (!t) return false;
    const tag = el.tagName.toLowerCase();
    const cls = (el.getAttribute('class') || '').toLowerCase();
    return tag === 'button' || tag === 'input' || el.getAttribute('role') === 'button' ||
      /(^|[\s_-])(btn|button|cta)([\s_-]|$)/.test(cls) || matchesLexicon(t);
  });
`

// factsJS gathers the facts that depend on layout, computed style or runtime state
const factsJS = `
const ownText = (el) => Array.from(el.childNodes).some(n => n.nodeType === 3 && n.textContent.trim().length > 0);
const skipTags = new Set(['SCRIPT', 'STYLE', 'NOSCRIPT', 'TEMPLATE', 'SVG', 'OPTION']);
const all = document.body ? Array.from(document.body.querySelectorAll('*')) : [];
const textEls = all.filter(el => !skipTags.has(el.tagName.toUpperCase()) && ownText(el) && visible(el)).slice(0, 400);

const declared = new Set();
const loaded = new Set();
if (document.fonts) {
  document.fonts.forEach(f => {
    const fam = f.family.replace(/^["']|["']$/g, '').toLowerCase();
    declared.add(fam);
    if (f.status === 'loaded') loaded.add(fam);
  });
}
const generic = new Set(['serif', 'sans-serif', 'monospace', 'cursive', 'fantasy', 'system-ui', 'ui-serif', 'ui-sans-serif', 'ui-monospace', 'ui-rounded', 'emoji', 'math', 'fangsong']);
const fonts = new Set();
for (const el of textEls) {
  const stack = getComputedStyle(el).fontFamily.split(',').map(s => s.trim().replace(/^["']|["']$/g, '')).filter(Boolean);
  for (const fam of stack) {
    const k = fam.toLowerCase();
    // a declared face that failed to load falls through to the next family
    if (loaded.has(k) || generic.has(k) || !declared.has(k)) { fonts.add(fam); break; }
  }
}

const textStyles = textEls.slice(0, 300).map(el => {
  const cs = getComputedStyle(el);
  const bg = resolveBackground(el);
  const weight = parseInt(cs.fontWeight, 10) || 400;
  return { selector: describe(el), color: cs.color, background: bg.color, font_size_px: parseFloat(cs.fontSize) || 0, bold: weight >= 700, over_image: bg.overImage };
});

const colors = {};
for (const role of ['body', 'h1', 'h2', 'h3', 'p', 'a', 'button', 'label', 'input', 'footer']) {
  const el = Array.from(document.querySelectorAll(role)).find(visible);
  if (!el) continue;
  colors[role] = getComputedStyle(el).color;
  colors[role + ':background'] = resolveBackground(el).color;
}

const placeholders = Array.from(document.querySelectorAll('input[placeholder], textarea[placeholder]'))
  .filter(el => el.placeholder && visible(el))
  .map(el => ({
    field: el.name || el.id || describe(el),
    placeholder_color: getComputedStyle(el, '::placeholder').color,
    text_color: getComputedStyle(el).color,
    background: resolveBackground(el).color,
  }));

const carouselSel = '[class*="carousel"], [class*="slider"], [class*="swiper"], [class*="slick"], [class*="splide"], [class*="glide"], [class*="owl-carousel"], [class*="flickity"]';
const images = Array.from(document.images).map(img => {
  const r = img.getBoundingClientRect();
  const src = img.currentSrc || img.src || '';
  return {
    src: src, alt: img.getAttribute('alt') || '',
    width: Math.round(r.width), height: Math.round(r.height),
    naturalWidth: img.naturalWidth, naturalHeight: img.naturalHeight,
    srcset: img.getAttribute('srcset') || '', inPicture: !!img.closest('picture'),
    inCarousel: !!img.closest(carouselSel),
    broken: !!src && img.complete && img.naturalWidth === 0,
  };
});

const ctas = ctaElements().map(el => ({ text: clean(el.innerText || el.value).slice(0, 120), tag: el.tagName.toLowerCase(), href: el.getAttribute('href') || '' }));

let sticky = null;
if (MOBILE) {
  for (const el of all) {
    const cs = getComputedStyle(el);
    if (cs.position !== 'fixed' && cs.position !== 'sticky') continue;
    if (!visible(el)) continue;
    const control = el.matches('a, button, [role=button], input[type=submit]') ? el : el.querySelector('a, button, [role=button], input[type=submit]');
    const text = clean(el.innerText);
    if (control || matchesLexicon(text)) {
      sticky = { text: clean(control ? (control.innerText || control.value) : text).slice(0, 200) };
      break;
    }
  }
}

const animations = new Set();
for (const el of all.slice(0, 3000)) {
  const name = getComputedStyle(el).animationName;
  if (name && name !== 'none') name.split(',').forEach(n => animations.add(n.trim()));
}

const nav = performance.getEntriesByType('navigation')[0];
const paint = performance.getEntriesByType('paint').find(e => e.name === 'first-contentful-paint');

return JSON.stringify({
  title: document.title,
  fonts: Array.from(fonts),
  colors: colors,
  textStyles: textStyles,
  placeholders: placeholders,
  images: images,
  ctas: ctas,
  sticky: sticky,
  animations: Array.from(animations),
  visibleText: (document.body ? document.body.innerText : '').slice(0, 20000),
  loadMs: nav && nav.loadEventEnd > 0 ? nav.loadEventEnd - nav.startTime : null,
  fcpMs: paint ? paint.startTime : null,
});
`

// hoverLocateJS scrolls the primary CTA into view, tags it and returns its centre
const hoverLocateJS = `
const els = ctaElements();
const el = els.find(e => matchesLexicon(e.innerText || e.value)) || els[0];
if (!el) return JSON.stringify({ found: false });
el.scrollIntoView({ block: 'center', inline: 'center' });
el.setAttribute('data-lpqa-hover', '1');
const r = el.getBoundingClientRect();
const cs = getComputedStyle(el);
return JSON.stringify({
  found: true,
  text: clean(el.innerText || el.value).slice(0, 120),
  x: r.left + r.width / 2,
  y: r.top + r.height / 2,
  before: { color: cs.color, background: cs.backgroundColor, border: cs.borderColor },
});
`

const hoverReadJS = `
const el = document.querySelector('[data-lpqa-hover]');
if (!el) return JSON.stringify(null);
const cs = getComputedStyle(el);
el.removeAttribute('data-lpqa-hover');
return JSON.stringify({ color: cs.color, background: cs.backgroundColor, border: cs.borderColor });
`

// buildScript wraps a script body in an IIFE with the shared helpers in scope
func buildScript(body string, lexicon []string, mobile bool) string {
	lex, err := json.Marshal(lexicon)
	if err != nil {
		lex = []byte("[]")
	}
	return fmt.Sprintf("(() => {\nconst LEXICON = %s;\nconst MOBILE = %t;\n%s\n%s\n})()", lex, mobile, helpersJS, body)
}

// pageFacts mirrors the JSON produced by factsJS
type pageFacts struct {
	Title        string                   `json:"title"`
	Fonts        []string                 `json:"fonts"`
	Colors       map[string]string        `json:"colors"`
	TextStyles   []types.TextStyle        `json:"textStyles"`
	Placeholders []types.PlaceholderStyle `json:"placeholders"`
	Images       []imageJS                `json:"images"`
	CTAs         []types.CTA              `json:"ctas"`
	Sticky       *stickyJS                `json:"sticky"`
	Animations   []string                 `json:"animations"`
	VisibleText  string                   `json:"visibleText"`
	LoadMs       *float64                 `json:"loadMs"`
	FcpMs        *float64                 `json:"fcpMs"`
}

type stickyJS struct {
	Text string `json:"text"`
}

type imageJS struct {
	Src           string `json:"src"`
	Alt           string `json:"alt"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	NaturalWidth  int    `json:"naturalWidth"`
	NaturalHeight int    `json:"naturalHeight"`
	Srcset        string `json:"srcset"`
	InPicture     bool   `json:"inPicture"`
	InCarousel    bool   `json:"inCarousel"`
	Broken        bool   `json:"broken"`
}

type hoverTarget struct {
	Found  bool             `json:"found"`
	Text   string           `json:"text"`
	X      float64          `json:"x"`
	Y      float64          `json:"y"`
	Before types.HoverStyle `json:"before"`
}
