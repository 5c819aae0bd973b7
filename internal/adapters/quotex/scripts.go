package quotex

import (
	"encoding/json"
	"fmt"
	"strings"
)

// candleScripts son las expresiones candidatas para leer las velas del gráfico,
// en orden de preferencia. Cada una devuelve un array [{t, o, h, l, c}].
func candleScripts(count int) []string {
	return []string{
		fmt.Sprintf(`(function(n) {
  const out = [];
  try {
    const series = window.__lc_series || window.series || null;
    if (series && series.series && series.series[0] && series.series[0].data) {
      const data = series.series[0].data;
      for (let i = Math.max(0, data.length - n); i < data.length; i++) {
        const c = data[i];
        out.push({t: c.time, o: c.open, h: c.high, l: c.low, c: c.close});
      }
    }
  } catch (e) {}
  return out;
})(%d)`, count),
		fmt.Sprintf(`(function(n) {
  const out = [];
  try {
    const w = window.tvWidget || window.widget || null;
    if (w && w.activeChart) {
      const c = w.activeChart();
      const bars = c._bars || c._data || [];
      for (let i = Math.max(0, bars.length - n); i < bars.length; i++) {
        const b = bars[i];
        if (!b) continue;
        out.push({t: b.time || b.t, o: b.open || b.o, h: b.high || b.h, l: b.low || b.l, c: b.close || b.cl});
      }
    }
  } catch (e) {}
  return out;
})(%d)`, count),
	}
}

const (
	selBalance           = `[data-qa='balance']`
	selAssetSelector     = `[data-qa='asset-selector']`
	selTimeframeSelector = `[data-qa='timeframe-selector']`
	selEmail             = `input[name='email']`
	selPassword          = `input[name='password']`
	selSubmit            = `button[type='submit']`
	selCode              = `input[type='tel'], input[name*='code'], input[autocomplete='one-time-code']`
)

// clickAssetScript hace click en el primer item del selector de activos cuyo
// texto contiene name (sin distinguir mayúsculas). Devuelve true si lo encontró.
func clickAssetScript(name string) string {
	return fmt.Sprintf(`(function(name) {
  const items = document.querySelectorAll("[data-qa='asset-item'], li, div[role='option']");
  for (const it of items) {
    if ((it.innerText || "").trim().toLowerCase().includes(name)) {
      it.scrollIntoView({block: "center"});
      it.click();
      return true;
    }
  }
  return false;
})(%s)`, jsString(strings.ToLower(strings.TrimSpace(name))))
}

// clickTimeframeScript elige la opción del selector de timeframe con la etiqueta dada.
func clickTimeframeScript(label string) string {
	return fmt.Sprintf(`(function(label) {
  const opts = document.querySelectorAll("[data-qa='timeframe-option'], button, li");
  for (const op of opts) {
    if ((op.innerText || "").toUpperCase().includes(label)) {
      op.click();
      return true;
    }
  }
  return false;
})(%s)`, jsString(strings.ToUpper(label)))
}

const (
	// assetNamesScript lista el texto de cada item del selector de activos.
	assetNamesScript = `Array.from(document.querySelectorAll("[data-qa='asset-item'], li, div[role='option']")).map(it => (it.innerText || "").trim())`

	blurScript = `document.activeElement && document.activeElement.blur && document.activeElement.blur(); true`

	readLocalStorageScript = `(function() {
  const ls = {};
  for (let i = 0; i < localStorage.length; i++) {
    const k = localStorage.key(i);
    ls[k] = localStorage.getItem(k);
  }
  return ls;
})()`
)

// setLocalStorageScript escribe una clave de localStorage.
func setLocalStorageScript(key, value string) string {
	return fmt.Sprintf(`localStorage.setItem(%s, %s); true`, jsString(key), jsString(value))
}

// jsString codifica s como literal de string JS (JSON es un subconjunto válido).
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
