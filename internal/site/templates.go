package site

// pageTemplate is the Go html/template for the paste show page. Each file
// is one table.sourcetable; its rows carry the gutter cell and the
// data-line-number the client script reads on click.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  {{- if .Live}}
  <link rel="stylesheet" href="/static/pastemark.css">
  <link rel="stylesheet" href="/static/chroma.css">
  {{- else}}
  <style>{{.InlineCSS}}</style>
  {{- end}}
</head>
<body>
  <main class="page-show" data-paste-id="{{.PasteID}}">
    {{- range .Files}}
    <section class="file-part">
      <div class="file-meta">
        <span class="filename">{{if .Name}}{{.Name}}{{else}}file {{.Number}}{{end}}</span>
        <span class="lexer">{{.Lexer}}</span>
        {{- if .RawURL}}
        <a class="raw" href="{{.RawURL}}">raw</a>
        {{- end}}
      </div>
      <div class="code chroma">
        <table class="sourcetable">
          <tbody>
          {{- range .Rows}}
            <tr><td class="linenos"><span class="lineno" data-line-number="{{.Number}}">{{.Number}}</span></td><td class="code{{if .Highlighted}} highlighted{{end}}">{{.Code}}</td></tr>
          {{- end}}
          </tbody>
        </table>
      </div>
    </section>
    {{- end}}
  </main>
  {{- if .Live}}
  <script src="/static/pastemark.js"></script>
  {{- end}}
</body>
</html>`

// cssContent is the page CSS for the show page.
const cssContent = `:root {
  --bg: #ffffff;
  --fg: #1f2328;
  --gutter: #8c959f;
  --border: #d0d7de;
  --highlight: #fff8c5;
}

body {
  margin: 0;
  background: var(--bg);
  color: var(--fg);
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif;
}

main.page-show {
  max-width: 1100px;
  margin: 0 auto;
  padding: 1rem;
}

section.file-part {
  border: 1px solid var(--border);
  border-radius: 6px;
  margin-bottom: 1.5rem;
  overflow: hidden;
}

.file-meta {
  display: flex;
  gap: 1rem;
  padding: 0.5rem 0.75rem;
  border-bottom: 1px solid var(--border);
  font-size: 0.875rem;
}

.file-meta .lexer {
  color: var(--gutter);
}

.file-meta .raw {
  margin-left: auto;
}

table.sourcetable {
  border-collapse: collapse;
  width: 100%;
  font-family: ui-monospace, SFMono-Regular, Menlo, Consolas, monospace;
  font-size: 0.8125rem;
}

table.sourcetable td {
  padding: 0 0.75rem;
  vertical-align: top;
}

table.sourcetable td.linenos {
  width: 1%;
  text-align: right;
  color: var(--gutter);
  cursor: pointer;
  user-select: none;
}

table.sourcetable td.code {
  white-space: pre-wrap;
  word-break: break-all;
}

table.sourcetable td.code.highlighted {
  background: var(--highlight);
}
`

// jsContent forwards page events to the highlight session and carries out
// the effects it sends back.
const jsContent = `(() => {
  const main = document.querySelector("main.page-show");
  const bodies = document.querySelectorAll("table.sourcetable tbody");
  if (!main || bodies.length === 0) {
    return;
  }

  const scheme = location.protocol === "https:" ? "wss:" : "ws:";
  const ws = new WebSocket(scheme + "//" + location.host + "/ws/highlight/" + main.dataset.pasteId);
  const send = (msg) => {
    if (ws.readyState === WebSocket.OPEN) {
      ws.send(JSON.stringify(msg));
    }
  };
  const fragmentOf = (url) => new URL(url).hash.substring(1);

  const cell = (file, row) => {
    const body = bodies[file];
    const tr = body && body.children[row];
    return tr && tr.querySelector("td.code");
  };

  const apply = (effect) => {
    switch (effect.kind) {
    case "toggle": {
      const c = cell(effect.file, effect.row);
      if (c) c.classList.toggle("highlighted");
      break;
    }
    case "write_address":
      location.hash = effect.fragment;
      break;
    case "scroll": {
      const c = cell(effect.file, effect.row);
      if (c) c.scrollIntoView();
      break;
    }
    }
  };

  ws.addEventListener("open", () => {
    send({ type: "load", fragment: location.hash.substring(1) });
  });

  ws.addEventListener("message", (event) => {
    const msg = JSON.parse(event.data);
    if (msg.type === "effects") {
      (msg.effects || []).forEach(apply);
    }
  });

  window.addEventListener("hashchange", (event) => {
    send({ type: "hashchange", old: fragmentOf(event.oldURL), new: fragmentOf(event.newURL) });
  });

  bodies.forEach((body, file) => {
    body.addEventListener("click", (event) => {
      const t = event.target;
      const child = t.firstElementChild;
      send({
        type: "click",
        file: file,
        shift: event.shiftKey,
        target: {
          classes: Array.from(t.classList),
          line_number: t.dataset.lineNumber || "",
          child_line_number: (child && child.dataset.lineNumber) || "",
        },
      });
    });
  });
})();
`
