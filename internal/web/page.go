package web

// Minimal built-in dashboard. Anything fancier should talk to the JSON
// API or the websocket itself.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>vitalviz</title>
<style>
  body { font-family: monospace; background: #1e1e2e; color: #cdd6f4; margin: 2em; }
  h1 { color: #89b4fa; font-size: 1.2em; }
  .card { border: 1px solid #45475a; border-radius: 6px; padding: 0.8em 1.2em; margin: 0.6em 0; }
  .alert { color: #f38ba8; }
  table { border-collapse: collapse; }
  td, th { padding: 0.15em 1em 0.15em 0; text-align: left; }
  button { background: #313244; color: #cdd6f4; border: 1px solid #45475a; border-radius: 4px; padding: 0.3em 0.8em; cursor: pointer; }
  a { color: #89b4fa; margin-left: 1em; }
</style>
</head>
<body>
<h1>vitalviz</h1>
<div class="card" id="vitals">waiting for first tick...</div>
<div class="card"><table id="procs"></table></div>
<button onclick="ws.send(JSON.stringify({type:'reset_history'}))">reset history</button>
<a href="/api/export?format=csv">export csv</a>
<a href="/api/export?format=json">export json</a>
<script>
const fmtBytes = function(v) {
  if (v >= 1048576) return (v / 1048576).toFixed(1) + ' MB/s';
  if (v >= 1024) return (v / 1024).toFixed(1) + ' KB/s';
  return v.toFixed(0) + ' B/s';
};
const ws = new WebSocket('ws://' + location.host + '/ws');
ws.onmessage = function(ev) {
  const msg = JSON.parse(ev.data);
  if (msg.type !== 'tick') return;
  const s = msg.sample;
  const lines = [];
  if (s.cpu) {
    const mean = s.cpu.reduce((a, b) => a + b, 0) / s.cpu.length;
    lines.push('cpu    ' + mean.toFixed(1) + '% across ' + s.cpu.length + ' cores');
  }
  if (s.memory) lines.push('memory ' + s.memory.percent.toFixed(1) + '%');
  if (msg.rates) lines.push('net    ↑ ' + fmtBytes(msg.rates.bytes_sent_per_sec) + '  ↓ ' + fmtBytes(msg.rates.bytes_recv_per_sec));
  for (const ev2 of msg.events || []) {
    lines.push('<span class="alert">' + ev2.kind + ': ' + ev2.quantity + ' at ' + ev2.value.toFixed(1) + '%</span>');
  }
  document.getElementById('vitals').innerHTML = lines.join('<br>');
  const rows = ['<tr><th>pid</th><th>name</th><th>cpu%</th><th>mem%</th></tr>'];
  for (const p of s.processes || []) {
    rows.push('<tr><td>' + p.pid + '</td><td>' + p.name + '</td><td>' + p.cpu_percent.toFixed(1) + '</td><td>' + p.mem_percent.toFixed(1) + '</td></tr>');
  }
  document.getElementById('procs').innerHTML = rows.join('');
};
</script>
</body>
</html>
`
