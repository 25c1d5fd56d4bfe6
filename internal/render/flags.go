package render

import (
	"fmt"
	"regexp"
	"strconv"
)

// FormPayload is typed into every fillable input before a form is submitted.
const FormPayload = "CTF_INJECTION_PAYLOAD"

var flagPattern = regexp.MustCompile(`(?i)CTF\{.*?\}`)

// ExtractFlags returns the distinct CTF{...} tokens of body in order of
// first appearance.
func ExtractFlags(body string) []string {
	return appendFlags(nil, body)
}

// appendFlags appends the tokens of body that are not yet in flags.
func appendFlags(flags []string, body string) []string {
	for _, m := range flagPattern.FindAllString(body, -1) {
		dup := false
		for _, f := range flags {
			if f == m {
				dup = true
				break
			}
		}
		if !dup {
			flags = append(flags, m)
		}
	}
	return flags
}

const formCountScript = `document.forms.length`

// fillFormScript returns a script that fills the text-like inputs of form
// index with payload and submits it. It evaluates to false when the form
// does not exist. HTMLFormElement.prototype.submit is called directly since
// an input named "submit" shadows form.submit.
func fillFormScript(index int, payload string) string {
	return fmt.Sprintf(`(function(i, v) {
  var f = document.forms[i];
  if (!f) { return false; }
  var skip = {submit: 1, button: 1, hidden: 1, checkbox: 1, radio: 1, file: 1, image: 1, reset: 1};
  var inputs = f.querySelectorAll('input, textarea');
  for (var k = 0; k < inputs.length; k++) {
    var t = (inputs[k].type || '').toLowerCase();
    if (skip[t]) { continue; }
    try { inputs[k].value = v; } catch (e) {}
  }
  HTMLFormElement.prototype.submit.call(f);
  return true;
})(%d, %s)`, index, strconv.Quote(payload))
}
