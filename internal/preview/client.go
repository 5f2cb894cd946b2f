package preview

// ClientScript connects the page to /ws. It forwards clicks and changes on
// elements carrying a data-hid attribute and swaps in every snapshot the
// server pushes.
const ClientScript = `
(function() {
    'use strict';

    var root = document.getElementById('toyreact-root');
    var reconnectDelay = 1000;
    var maxReconnectDelay = 30000;
    var ws = null;

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        ws = new WebSocket(protocol + '//' + location.host + '/ws');

        ws.onopen = function() {
            console.log('[toyreact] preview connected');
            reconnectDelay = 1000;
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }
            switch (msg.type) {
                case 'snapshot':
                    root.innerHTML = msg.html;
                    root.setAttribute('data-version', msg.version);
                    break;
                case 'error':
                    console.error('[toyreact]', msg.error);
                    break;
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
                connect();
            }, reconnectDelay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    function forward(type, detail) {
        return function(e) {
            var el = e.target.closest('[data-hid]');
            if (!el || !ws || ws.readyState !== WebSocket.OPEN) {
                return;
            }
            ws.send(JSON.stringify({
                hid: el.getAttribute('data-hid'),
                type: type,
                detail: detail(e.target)
            }));
        };
    }

    document.addEventListener('click', forward('click', function() { return null; }));
    document.addEventListener('change', forward('change', function(t) { return t.value; }));

    connect();
})();
`
